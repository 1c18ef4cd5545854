package reward

import (
	"errors"
	"math"
	"testing"

	"github.com/postloop/creative-bandit/internal/bandit"
)

func calc(t *testing.T) *Calculator {
	t.Helper()
	return NewCalculator(DefaultConfig())
}

func TestComputeInstagramScenario(t *testing.T) {
	c := calc(t)
	m := Metrics{Saves: 45, Shares: 8, Comments: 25, Likes: 150, Followers: 10000}

	engagement, err := Engagement(bandit.PlatformInstagram, m)
	if err != nil {
		t.Fatalf("Engagement: %v", err)
	}
	if engagement != 231.0 {
		t.Fatalf("expected engagement 231.0, got %f", engagement)
	}

	got, err := c.Compute(bandit.PlatformInstagram, m, false, 0)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	want := math.Tanh(math.Log(232) / math.Log(10001))
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("expected %f, got %f", want, got)
	}
	if math.Abs(got-0.5304) > 1e-3 {
		t.Fatalf("expected reward near 0.5304, got %f", got)
	}
}

func TestComputeDeletedImmediate(t *testing.T) {
	c := calc(t)
	m := Metrics{Saves: 45, Shares: 8, Comments: 25, Likes: 150, Followers: 10000}

	base, err := c.Compute(bandit.PlatformInstagram, m, false, 0)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	got, err := c.Compute(bandit.PlatformInstagram, m, true, 0)
	if err != nil {
		t.Fatalf("Compute deleted: %v", err)
	}
	want := base - 1.5
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("expected %f, got %f", want, got)
	}
	if got < -1 || got > 1 {
		t.Fatalf("reward %f outside [-1, 1]", got)
	}
}

func TestComputeClampFloor(t *testing.T) {
	c := calc(t)
	// Near-zero engagement plus immediate deletion would fall below -1
	// without the clamp.
	m := Metrics{Followers: 10000}
	got, err := c.Compute(bandit.PlatformInstagram, m, true, 0)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got != -1.0 {
		t.Fatalf("expected clamped -1.0, got %f", got)
	}
}

func TestDeletePenaltyDecays(t *testing.T) {
	c := calc(t)
	m := Metrics{Saves: 10, Likes: 100, Followers: 5000}

	day0, err := c.Compute(bandit.PlatformInstagram, m, true, 0)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	day10, err := c.Compute(bandit.PlatformInstagram, m, true, 10)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if day0 > day10 {
		return
	}
	t.Fatalf("expected day-0 deletion (%f) to score below day-10 deletion (%f)", day0, day10)
}

func TestComputeMonotonic(t *testing.T) {
	c := calc(t)
	base := Metrics{Saves: 5, Shares: 2, Comments: 3, Likes: 40, Followers: 2000}

	prev, err := c.Compute(bandit.PlatformInstagram, base, false, 0)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for i := 1; i <= 20; i++ {
		m := base
		m.Saves += float64(i * 10)
		got, err := c.Compute(bandit.PlatformInstagram, m, false, 0)
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		if got <= prev {
			t.Fatalf("reward not strictly increasing at step %d: %f <= %f", i, got, prev)
		}
		prev = got
	}
}

func TestComputeBounds(t *testing.T) {
	c := calc(t)
	cases := []Metrics{
		{},
		{Likes: 1, Followers: 1},
		{Saves: 1e9, Shares: 1e9, Comments: 1e9, Likes: 1e9, Followers: 1},
		{Likes: 50, Followers: -100}, // followers <= 0 treated as 1
	}
	for i, m := range cases {
		got, err := c.Compute(bandit.PlatformInstagram, m, false, 0)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if got <= -1 || got >= 1 {
			t.Fatalf("case %d: pre-penalty reward %f outside (-1, 1)", i, got)
		}
	}
}

func TestComputeUnsupportedPlatform(t *testing.T) {
	c := calc(t)
	_, err := c.Compute(bandit.Platform("myspace"), Metrics{Likes: 1, Followers: 10}, false, 0)
	if !errors.Is(err, bandit.ErrUnsupportedPlatform) {
		t.Fatalf("expected ErrUnsupportedPlatform, got %v", err)
	}
}

func TestEngagementPerPlatform(t *testing.T) {
	m := Metrics{
		Likes: 10, Comments: 4, Shares: 3, Saves: 2,
		Replies: 5, Retweets: 6, Reactions: 7,
	}
	cases := []struct {
		platform bandit.Platform
		want     float64
	}{
		{bandit.PlatformInstagram, 3*2 + 2*3 + 4 + 0.3*10},
		{bandit.PlatformX, 3*5 + 2*6 + 10},
		{bandit.PlatformLinkedIn, 3*4 + 2*3 + 10},
		{bandit.PlatformFacebook, 3*4 + 2*3 + 7},
	}
	for _, tc := range cases {
		got, err := Engagement(tc.platform, m)
		if err != nil {
			t.Fatalf("%s: %v", tc.platform, err)
		}
		if math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("%s: expected %f, got %f", tc.platform, tc.want, got)
		}
	}
}

func TestComputeFromSnapshots(t *testing.T) {
	c := calc(t)
	snaps := []Snapshot{
		{WindowHours: 6, Metrics: Metrics{Saves: 10, Followers: 10000}},
		{WindowHours: 24, Metrics: Metrics{Saves: 40, Followers: 10000}},
		{WindowHours: 13, Metrics: Metrics{Saves: 999}}, // unknown window, skipped
	}
	got, err := c.ComputeFromSnapshots(bandit.PlatformInstagram, snaps, false, 0)
	if err != nil {
		t.Fatalf("ComputeFromSnapshots: %v", err)
	}
	weighted := 0.1*(3.0*10) + 0.5*(3.0*40)
	want := math.Tanh(math.Log(1+weighted) / math.Log(1+10000))
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("expected %f, got %f", want, got)
	}
}

func TestComputeFromSnapshotsEmpty(t *testing.T) {
	c := calc(t)
	got, err := c.ComputeFromSnapshots(bandit.PlatformInstagram, nil, false, 0)
	if err != nil {
		t.Fatalf("ComputeFromSnapshots: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected zero reward for no snapshots, got %f", got)
	}
}
