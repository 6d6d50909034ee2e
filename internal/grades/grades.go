// Package grades holds the metal grade specification registry: per-element
// acceptable ranges, midpoints, and in-spec checks. The registry is read-only
// after construction and safe for concurrent use.
package grades

import (
	"errors"
	"fmt"
	"sort"

	"github.com/metallisense/meltguard/internal/composition"
)

// ErrUnknownGrade is returned when a grade is not present in the registry.
var ErrUnknownGrade = errors.New("unknown grade")

// Range is an inclusive acceptable percentage range for one element.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Spec describes one metal grade.
type Spec struct {
	Grade       string           `json:"grade"`
	Description string           `json:"description"`
	Ranges      map[string]Range `json:"composition_ranges"`
}

// Registry is an immutable grade table shared across requests.
type Registry struct {
	specs map[string]Spec
}

// New builds a registry from the given specs, checking range sanity.
func New(specs []Spec) (*Registry, error) {
	table := make(map[string]Spec, len(specs))
	for _, s := range specs {
		if s.Grade == "" {
			return nil, errors.New("grade name must not be empty")
		}
		for el, r := range s.Ranges {
			if r.Min > r.Max {
				return nil, fmt.Errorf("grade %s element %s: min %g > max %g", s.Grade, el, r.Min, r.Max)
			}
		}
		table[s.Grade] = s
	}
	return &Registry{specs: table}, nil
}

// NewBuiltin returns the registry with the built-in grade table.
func NewBuiltin() *Registry {
	r, err := New(builtinSpecs())
	if err != nil {
		// builtin table is static and validated by tests
		panic(err)
	}
	return r
}

// Get returns the spec for a grade or ErrUnknownGrade.
func (r *Registry) Get(grade string) (Spec, error) {
	s, ok := r.specs[grade]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %s", ErrUnknownGrade, grade)
	}
	return s, nil
}

// Grades lists all registered grade names, sorted.
func (r *Registry) Grades() []string {
	out := make([]string, 0, len(r.specs))
	for name := range r.specs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Midpoint returns (min+max)/2 per element for a grade. Midpoints are the
// correction target for alloy additions.
func (r *Registry) Midpoint(grade string) (map[string]float64, error) {
	s, err := r.Get(grade)
	if err != nil {
		return nil, err
	}
	mid := make(map[string]float64, len(s.Ranges))
	for el, rng := range s.Ranges {
		mid[el] = (rng.Min + rng.Max) / 2.0
	}
	return mid, nil
}

// InSpec reports per-element range membership for a composition. Elements the
// grade does not specify are skipped, not errors.
func (r *Registry) InSpec(grade string, comp composition.Composition) (map[string]bool, error) {
	s, err := r.Get(grade)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(s.Ranges))
	for _, el := range composition.Elements {
		rng, ok := s.Ranges[el]
		if !ok {
			continue
		}
		v := comp.Get(el)
		out[el] = v >= rng.Min && v <= rng.Max
	}
	return out, nil
}

// Deviation returns composition minus grade midpoint, per element the grade
// specifies. Positive values are above target.
func (r *Registry) Deviation(grade string, comp composition.Composition) (map[string]float64, error) {
	mid, err := r.Midpoint(grade)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(mid))
	for _, el := range composition.Elements {
		m, ok := mid[el]
		if !ok {
			continue
		}
		out[el] = comp.Get(el) - m
	}
	return out, nil
}

func builtinSpecs() []Spec {
	return []Spec{
		{
			Grade:       "SG-IRON",
			Description: "Spheroidal Graphite Cast Iron (Ductile Iron)",
			Ranges: map[string]Range{
				"Fe": {82.0, 90.0},
				"C":  {3.0, 4.0},
				"Si": {1.8, 2.8},
				"Mn": {0.3, 1.0},
				"P":  {0.01, 0.08},
				"S":  {0.01, 0.03},
			},
		},
		{
			Grade:       "GREY-IRON",
			Description: "Grey Cast Iron (General Purpose)",
			Ranges: map[string]Range{
				"Fe": {85.0, 92.0},
				"C":  {2.5, 3.8},
				"Si": {1.0, 2.5},
				"Mn": {0.4, 1.2},
				"P":  {0.02, 0.15},
				"S":  {0.02, 0.12},
			},
		},
		{
			Grade:       "LOW-CARBON-STEEL",
			Description: "Mild Steel (Carbon < 0.3%)",
			Ranges: map[string]Range{
				"Fe": {98.0, 99.5},
				"C":  {0.05, 0.25},
				"Si": {0.1, 0.5},
				"Mn": {0.3, 0.9},
				"P":  {0.01, 0.04},
				"S":  {0.01, 0.05},
			},
		},
		{
			Grade:       "MEDIUM-CARBON-STEEL",
			Description: "Medium Carbon Steel (0.3-0.6% C)",
			Ranges: map[string]Range{
				"Fe": {97.5, 99.0},
				"C":  {0.3, 0.6},
				"Si": {0.15, 0.6},
				"Mn": {0.5, 1.5},
				"P":  {0.01, 0.04},
				"S":  {0.01, 0.05},
			},
		},
		{
			Grade:       "HIGH-CARBON-STEEL",
			Description: "High Carbon Steel (0.6-1.4% C)",
			Ranges: map[string]Range{
				"Fe": {97.0, 98.5},
				"C":  {0.6, 1.4},
				"Si": {0.2, 0.8},
				"Mn": {0.6, 1.8},
				"P":  {0.01, 0.04},
				"S":  {0.01, 0.05},
			},
		},
	}
}
