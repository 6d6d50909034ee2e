package composition

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFromMapValid(t *testing.T) {
	comp, err := FromMap(map[string]float64{
		"Fe": 81.2, "C": 4.4, "Si": 3.1, "Mn": 0.4, "P": 0.04, "S": 0.02,
	})
	if err != nil {
		t.Fatalf("from map: %v", err)
	}
	want := Composition{Fe: 81.2, C: 4.4, Si: 3.1, Mn: 0.4, P: 0.04, S: 0.02}
	if diff := cmp.Diff(want, comp); diff != "" {
		t.Fatalf("composition mismatch (-want +got):\n%s", diff)
	}
}

func TestFromMapMissingElement(t *testing.T) {
	_, err := FromMap(map[string]float64{
		"Fe": 81.2, "C": 4.4, "Si": 3.1, "Mn": 0.4, "P": 0.04,
	})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for missing S, got %v", err)
	}
}

func TestFromMapUnknownElement(t *testing.T) {
	_, err := FromMap(map[string]float64{
		"Fe": 81.2, "C": 4.4, "Si": 3.1, "Mn": 0.4, "P": 0.04, "S": 0.02, "Cu": 0.5,
	})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown element, got %v", err)
	}
}

func TestValidateRange(t *testing.T) {
	cases := []struct {
		name string
		comp Composition
		ok   bool
	}{
		{"in range", Composition{Fe: 90, C: 3, Si: 2, Mn: 0.5, P: 0.04, S: 0.02}, true},
		{"zero values", Composition{}, true},
		{"negative", Composition{Fe: -0.1}, false},
		{"above hundred", Composition{Fe: 90, C: 100.1}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.comp.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestVectorFollowsElementOrder(t *testing.T) {
	comp := Composition{Fe: 1, C: 2, Si: 3, Mn: 4, P: 5, S: 6}
	got := comp.Vector()
	want := []float64{1, 2, 3, 4, 5, 6}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("vector mismatch (-want +got):\n%s", diff)
	}
}

func TestMapRoundTrip(t *testing.T) {
	comp := Composition{Fe: 93.5, C: 3.2, Si: 2.1, Mn: 0.65, P: 0.08, S: 0.12}
	back, err := FromMap(comp.Map())
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if back != comp {
		t.Fatalf("round trip mismatch: got %+v want %+v", back, comp)
	}
}
