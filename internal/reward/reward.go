package reward

import (
	"fmt"
	"math"

	"github.com/postloop/creative-bandit/internal/bandit"
)

// #region metrics

// Metrics holds raw per-post engagement counters. Fields a platform does not
// report stay at their zero value; a missing metric is expected, not an error.
type Metrics struct {
	Likes     float64 `json:"likes"`
	Comments  float64 `json:"comments"`
	Shares    float64 `json:"shares"`
	Saves     float64 `json:"saves"`
	Replies   float64 `json:"replies"`
	Retweets  float64 `json:"retweets"`
	Reactions float64 `json:"reactions"`
	Followers float64 `json:"followers"`
}

// #endregion metrics

// #region engagement

// Engagement computes the platform-specific weighted engagement sum.
// Weights reflect what each platform's algorithm values most:
// Instagram saves, X replies, LinkedIn and Facebook comments.
func Engagement(platform bandit.Platform, m Metrics) (float64, error) {
	switch platform {
	case bandit.PlatformInstagram:
		return 3.0*m.Saves + 2.0*m.Shares + 1.0*m.Comments + 0.3*m.Likes, nil
	case bandit.PlatformX:
		return 3.0*m.Replies + 2.0*m.Retweets + 1.0*m.Likes, nil
	case bandit.PlatformLinkedIn:
		return 3.0*m.Comments + 2.0*m.Shares + 1.0*m.Likes, nil
	case bandit.PlatformFacebook:
		return 3.0*m.Comments + 2.0*m.Shares + 1.0*m.Reactions, nil
	}
	return 0, fmt.Errorf("%w: %q", bandit.ErrUnsupportedPlatform, platform)
}

// #endregion engagement

// #region config

// Config holds the deletion-penalty calibration.
type Config struct {
	// PenaltyImmediate is subtracted when the deletion age is unknown or
	// zero days. Immediate deletion is the worst possible outcome.
	PenaltyImmediate float64 `yaml:"penaltyImmediate"`
	// PenaltyScale and PenaltyTauDays shape the decayed penalty
	// scale * exp(-days/tau) for later deletions.
	PenaltyScale   float64 `yaml:"penaltyScale"`
	PenaltyTauDays float64 `yaml:"penaltyTauDays"`
}

// DefaultConfig returns the calibrated penalty constants.
func DefaultConfig() Config {
	return Config{
		PenaltyImmediate: 1.5,
		PenaltyScale:     1.2,
		PenaltyTauDays:   2.0,
	}
}

// #endregion config

// #region calculator

// Calculator converts raw engagement metrics into a bounded scalar reward.
type Calculator struct {
	config Config
}

// NewCalculator creates a calculator with the given penalty calibration.
func NewCalculator(config Config) *Calculator {
	return &Calculator{config: config}
}

// Compute produces the reward for one post.
//
// Pipeline: platform-weighted engagement, log-normalization against audience
// size, tanh bounding, then an optional deletion penalty. The result is
// clamped to [-1, 1]. daysSincePost <= 0 means unknown-or-immediate and
// takes the maximum penalty.
func (c *Calculator) Compute(platform bandit.Platform, m Metrics, deleted bool, daysSincePost float64) (float64, error) {
	engagement, err := Engagement(platform, m)
	if err != nil {
		return 0, err
	}

	// Follower counts <= 0 are treated as 1 so log(1+followers) never hits 0.
	followers := math.Max(m.Followers, 1)

	raw := math.Log(1+engagement) / math.Log(1+followers)
	reward := math.Tanh(raw)

	if deleted {
		reward -= c.deletePenalty(daysSincePost)
	}

	return clamp(reward, -1, 1), nil
}

// deletePenalty returns the penalty for an owner-deleted post. Deletion is
// an override signal: a deleted post lands near the floor even if it was
// performing well, while deletions long after posting hurt less.
func (c *Calculator) deletePenalty(daysSincePost float64) float64 {
	if daysSincePost <= 0 {
		return c.config.PenaltyImmediate
	}
	return c.config.PenaltyScale * math.Exp(-daysSincePost/c.config.PenaltyTauDays)
}

// #endregion calculator

// #region snapshots

// Snapshot is one engagement reading at a fixed window after posting.
type Snapshot struct {
	WindowHours int     `json:"window_hours"`
	Metrics     Metrics `json:"metrics"`
}

// WindowWeights weights each snapshot window's engagement contribution.
// The 24h window carries the primary signal; the 168h tail captures
// viral potential.
var WindowWeights = map[int]float64{
	6:   0.1,
	24:  0.5,
	48:  0.3,
	72:  0.15,
	168: 0.05,
}

// ComputeFromSnapshots aggregates window-weighted engagement across
// snapshots, then normalizes and bounds like Compute. Snapshots at
// unrecognized windows are skipped. Follower count is taken from the first
// snapshot.
func (c *Calculator) ComputeFromSnapshots(platform bandit.Platform, snaps []Snapshot, deleted bool, daysSincePost float64) (float64, error) {
	var weighted float64
	for _, snap := range snaps {
		weight, ok := WindowWeights[snap.WindowHours]
		if !ok {
			continue
		}
		engagement, err := Engagement(platform, snap.Metrics)
		if err != nil {
			return 0, err
		}
		weighted += weight * engagement
	}

	followers := 1.0
	if len(snaps) > 0 {
		followers = math.Max(snaps[0].Metrics.Followers, 1)
	}

	raw := math.Log(1+weighted) / math.Log(1+followers)
	reward := math.Tanh(raw)

	if deleted {
		reward -= c.deletePenalty(daysSincePost)
	}

	return clamp(reward, -1, 1), nil
}

// #endregion snapshots

// #region helpers

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion helpers
