package bandit

import (
	"context"
	"fmt"

	"github.com/postloop/creative-bandit/internal/actionspace"
)

// #region platform

// Platform identifies a social network with its own engagement economics.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformX         Platform = "x"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformFacebook  Platform = "facebook"
)

// Platforms lists every supported platform.
var Platforms = []Platform{
	PlatformInstagram,
	PlatformX,
	PlatformLinkedIn,
	PlatformFacebook,
}

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformInstagram, PlatformX, PlatformLinkedIn, PlatformFacebook:
		return true
	}
	return false
}

// ParsePlatform validates a raw platform string. An unrecognized platform
// is a hard error, never silently defaulted.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, s)
	}
	return p, nil
}

// #endregion platform

// #region time-bucket

// TimeBucket coarsens posting time into four slots.
type TimeBucket string

const (
	BucketMorning   TimeBucket = "morning"
	BucketAfternoon TimeBucket = "afternoon"
	BucketEvening   TimeBucket = "evening"
	BucketNight     TimeBucket = "night"
)

// Valid reports whether b is a known time bucket.
func (b TimeBucket) Valid() bool {
	switch b {
	case BucketMorning, BucketAfternoon, BucketEvening, BucketNight:
		return true
	}
	return false
}

// #endregion time-bucket

// #region embedding-dims

const (
	// EmbeddingHalfDim is the length of each embedding half.
	EmbeddingHalfDim = 384
	// ContextDim is the full context vector length: business ++ topic.
	ContextDim = 2 * EmbeddingHalfDim
)

// #endregion embedding-dims

// #region context

// Context is the immutable situational input one decision is conditioned on.
// Created once per post-generation cycle; consumed by both selection and
// learning.
type Context struct {
	Platform          Platform
	TimeBucket        TimeBucket
	DayOfWeek         int // 0-6
	BusinessEmbedding []float32
	TopicEmbedding    []float32
}

// ValidateKeys checks the discrete context fields that address preference
// entries. Used by learning passes that replay a stored context vector and
// therefore carry no embedding halves.
func (c Context) ValidateKeys() error {
	if !c.Platform.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedPlatform, c.Platform)
	}
	if !c.TimeBucket.Valid() {
		return fmt.Errorf("%w: time bucket %q", ErrMissingContext, c.TimeBucket)
	}
	if c.DayOfWeek < 0 || c.DayOfWeek > 6 {
		return fmt.Errorf("%w: day of week %d out of range", ErrMissingContext, c.DayOfWeek)
	}
	return nil
}

// Validate checks the discrete context fields and embedding shapes.
func (c Context) Validate() error {
	if err := c.ValidateKeys(); err != nil {
		return err
	}
	if len(c.BusinessEmbedding) != EmbeddingHalfDim {
		return fmt.Errorf("%w: business embedding has %d elements, want %d",
			ErrMissingContext, len(c.BusinessEmbedding), EmbeddingHalfDim)
	}
	if len(c.TopicEmbedding) != EmbeddingHalfDim {
		return fmt.Errorf("%w: topic embedding has %d elements, want %d",
			ErrMissingContext, len(c.TopicEmbedding), EmbeddingHalfDim)
	}
	return nil
}

// Vector concatenates the embedding halves into the context vector.
// Order is fixed: business first, topic second.
func (c Context) Vector() ([]float32, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	vec := make([]float32, 0, ContextDim)
	vec = append(vec, c.BusinessEmbedding...)
	vec = append(vec, c.TopicEmbedding...)
	return vec, nil
}

// #endregion context

// #region preference-key

// PreferenceKey addresses one discrete preference entry.
type PreferenceKey struct {
	Platform   Platform
	TimeBucket TimeBucket
	DayOfWeek  int
	Dimension  actionspace.Dimension
	Value      string
}

// Key builds the preference key for one (dimension, value) pair of this context.
func (c Context) Key(d actionspace.Dimension, v string) PreferenceKey {
	return PreferenceKey{
		Platform:   c.Platform,
		TimeBucket: c.TimeBucket,
		DayOfWeek:  c.DayOfWeek,
		Dimension:  d,
		Value:      v,
	}
}

// PreferenceEntry is the stored scalar state behind a preference key.
type PreferenceEntry struct {
	Score      float64
	NumSamples int
}

// #endregion preference-key

// #region embedder

// Embedder abstracts the external embedding provider. The engine never
// computes embeddings itself; contexts arrive with pre-built halves or are
// filled in through this seam.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// #endregion embedder
