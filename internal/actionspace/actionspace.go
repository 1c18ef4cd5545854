package actionspace

import "fmt"

// #region dimension

// Dimension identifies one creative-control decision axis.
type Dimension string

const (
	DimHookType    Dimension = "hook_type"
	DimHookLength  Dimension = "hook_length"
	DimTone        Dimension = "tone"
	DimCreativity  Dimension = "creativity"
	DimTextInImage Dimension = "text_in_image"
	DimVisualStyle Dimension = "visual_style"
)

// Dimensions lists every dimension in canonical order. Selection and
// learning both iterate in this order so per-key updates line up.
var Dimensions = []Dimension{
	DimHookType,
	DimHookLength,
	DimTone,
	DimCreativity,
	DimTextInImage,
	DimVisualStyle,
}

// #endregion dimension

// #region space

// space maps each dimension to its ordered set of allowed values.
// These names are a stable contract: stored preference and weight keys
// reference them verbatim, so renaming a value orphans its learned state.
var space = map[Dimension][]string{
	DimHookType: {
		"question",
		"bold_claim",
		"relatable_pain",
		"trendy_topic",
		"curiosity_gap",
	},
	DimHookLength:  {"short", "medium"},
	DimTone:        {"casual", "formal", "humorous", "educational"},
	DimCreativity:  {"safe", "balanced", "experimental"},
	DimTextInImage: {"text", "no_text"},
	DimVisualStyle: {"abstract", "human_figure"},
}

// Values returns the allowed values for a dimension, in canonical order.
// The returned slice must not be mutated.
func Values(d Dimension) []string {
	return space[d]
}

// ValidValue reports whether v is an allowed value for dimension d.
func ValidValue(d Dimension, v string) bool {
	for _, allowed := range space[d] {
		if allowed == v {
			return true
		}
	}
	return false
}

// Validate checks the action space itself. An empty dimension is a
// configuration error and must abort startup, never be skipped.
func Validate() error {
	for _, d := range Dimensions {
		if len(space[d]) == 0 {
			return fmt.Errorf("action space dimension %q has no values", d)
		}
	}
	return nil
}

// #endregion space

// #region action

// Action holds exactly one chosen value per dimension. Fixed fields (rather
// than a map keyed by ad hoc strings) make an invalid dimension a compile
// error instead of a silent lookup miss.
type Action struct {
	HookType    string `json:"hook_type"`
	HookLength  string `json:"hook_length"`
	Tone        string `json:"tone"`
	Creativity  string `json:"creativity"`
	TextInImage string `json:"text_in_image"`
	VisualStyle string `json:"visual_style"`
}

// Value returns the chosen value for the given dimension.
func (a Action) Value(d Dimension) string {
	switch d {
	case DimHookType:
		return a.HookType
	case DimHookLength:
		return a.HookLength
	case DimTone:
		return a.Tone
	case DimCreativity:
		return a.Creativity
	case DimTextInImage:
		return a.TextInImage
	case DimVisualStyle:
		return a.VisualStyle
	}
	return ""
}

// Set assigns the chosen value for the given dimension.
func (a *Action) Set(d Dimension, v string) {
	switch d {
	case DimHookType:
		a.HookType = v
	case DimHookLength:
		a.HookLength = v
	case DimTone:
		a.Tone = v
	case DimCreativity:
		a.Creativity = v
	case DimTextInImage:
		a.TextInImage = v
	case DimVisualStyle:
		a.VisualStyle = v
	}
}

// Pair is one (dimension, value) element of an action.
type Pair struct {
	Dimension Dimension
	Value     string
}

// Pairs returns the action as ordered (dimension, value) pairs.
func (a Action) Pairs() []Pair {
	pairs := make([]Pair, 0, len(Dimensions))
	for _, d := range Dimensions {
		pairs = append(pairs, Pair{Dimension: d, Value: a.Value(d)})
	}
	return pairs
}

// Validate checks that every dimension holds an allowed value.
func (a Action) Validate() error {
	for _, p := range a.Pairs() {
		if !ValidValue(p.Dimension, p.Value) {
			return fmt.Errorf("action has invalid value %q for dimension %q", p.Value, p.Dimension)
		}
	}
	return nil
}

// #endregion action
