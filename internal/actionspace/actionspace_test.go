package actionspace

import "testing"

func validAction() Action {
	return Action{
		HookType:    "question",
		HookLength:  "short",
		Tone:        "casual",
		Creativity:  "balanced",
		TextInImage: "no_text",
		VisualStyle: "abstract",
	}
}

func TestSpaceValidates(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("action space invalid: %v", err)
	}
}

func TestDimensionCardinalities(t *testing.T) {
	want := map[Dimension]int{
		DimHookType:    5,
		DimHookLength:  2,
		DimTone:        4,
		DimCreativity:  3,
		DimTextInImage: 2,
		DimVisualStyle: 2,
	}
	if len(Dimensions) != len(want) {
		t.Fatalf("expected %d dimensions, got %d", len(want), len(Dimensions))
	}
	for d, n := range want {
		if got := len(Values(d)); got != n {
			t.Fatalf("dimension %s: expected %d values, got %d", d, n, got)
		}
	}
}

func TestValidValue(t *testing.T) {
	if !ValidValue(DimHookType, "curiosity_gap") {
		t.Fatal("curiosity_gap should be a valid hook type")
	}
	if ValidValue(DimHookType, "short") {
		t.Fatal("short is a hook length, not a hook type")
	}
	if ValidValue(Dimension("unknown"), "question") {
		t.Fatal("unknown dimension should have no valid values")
	}
}

func TestActionValueSetRoundTrip(t *testing.T) {
	var a Action
	for _, d := range Dimensions {
		a.Set(d, Values(d)[0])
	}
	for _, d := range Dimensions {
		if a.Value(d) != Values(d)[0] {
			t.Fatalf("dimension %s: got %q, want %q", d, a.Value(d), Values(d)[0])
		}
	}
	if err := a.Validate(); err != nil {
		t.Fatalf("round-tripped action invalid: %v", err)
	}
}

func TestPairsPreserveCanonicalOrder(t *testing.T) {
	pairs := validAction().Pairs()
	if len(pairs) != len(Dimensions) {
		t.Fatalf("expected %d pairs, got %d", len(Dimensions), len(pairs))
	}
	for i, p := range pairs {
		if p.Dimension != Dimensions[i] {
			t.Fatalf("pair %d: got dimension %s, want %s", i, p.Dimension, Dimensions[i])
		}
	}
}

func TestActionValidateRejectsBadValue(t *testing.T) {
	a := validAction()
	if err := a.Validate(); err != nil {
		t.Fatalf("valid action rejected: %v", err)
	}

	a.Tone = "sarcastic"
	if err := a.Validate(); err == nil {
		t.Fatal("expected validation error for unknown tone")
	}

	var empty Action
	if err := empty.Validate(); err == nil {
		t.Fatal("expected validation error for zero action")
	}
}
