// Package composition defines the measured chemical composition of a melt
// sample and validation of spectrometer readings.
package composition

import (
	"errors"
	"fmt"
)

// Elements is the canonical ordered set of tracked elements. Feature vectors
// and regression outputs follow this order everywhere.
var Elements = []string{"Fe", "C", "Si", "Mn", "P", "S"}

// ErrInvalid reports a composition that cannot enter the pipeline.
var ErrInvalid = errors.New("invalid composition")

// Composition is a spectrometer reading: percentage per tracked element.
// Values are measurements, not a mass balance; they need not sum to 100.
// A Composition is immutable for the lifetime of a request.
type Composition struct {
	Fe float64 `json:"Fe" yaml:"Fe"`
	C  float64 `json:"C" yaml:"C"`
	Si float64 `json:"Si" yaml:"Si"`
	Mn float64 `json:"Mn" yaml:"Mn"`
	P  float64 `json:"P" yaml:"P"`
	S  float64 `json:"S" yaml:"S"`
}

// FromMap builds a Composition from an element map. Missing tracked elements
// and unknown element symbols are both rejected.
func FromMap(values map[string]float64) (Composition, error) {
	var c Composition
	for name := range values {
		if !tracked(name) {
			return Composition{}, fmt.Errorf("%w: unknown element %q", ErrInvalid, name)
		}
	}
	for _, el := range Elements {
		v, ok := values[el]
		if !ok {
			return Composition{}, fmt.Errorf("%w: missing element %q", ErrInvalid, el)
		}
		c.set(el, v)
	}
	if err := c.Validate(); err != nil {
		return Composition{}, err
	}
	return c, nil
}

// Validate checks that every element value is a percentage in [0, 100].
func (c Composition) Validate() error {
	for _, el := range Elements {
		v := c.Get(el)
		if v < 0 || v > 100 {
			return fmt.Errorf("%w: %s=%g outside [0, 100]", ErrInvalid, el, v)
		}
	}
	return nil
}

// Get returns the percentage for a tracked element, 0 for unknown symbols.
func (c Composition) Get(element string) float64 {
	switch element {
	case "Fe":
		return c.Fe
	case "C":
		return c.C
	case "Si":
		return c.Si
	case "Mn":
		return c.Mn
	case "P":
		return c.P
	case "S":
		return c.S
	}
	return 0
}

// Vector returns the element values in canonical order.
func (c Composition) Vector() []float64 {
	out := make([]float64, len(Elements))
	for i, el := range Elements {
		out[i] = c.Get(el)
	}
	return out
}

// Map returns the composition as an element map.
func (c Composition) Map() map[string]float64 {
	out := make(map[string]float64, len(Elements))
	for _, el := range Elements {
		out[el] = c.Get(el)
	}
	return out
}

func (c *Composition) set(element string, v float64) {
	switch element {
	case "Fe":
		c.Fe = v
	case "C":
		c.C = v
	case "Si":
		c.Si = v
	case "Mn":
		c.Mn = v
	case "P":
		c.P = v
	case "S":
		c.S = v
	}
}

func tracked(element string) bool {
	for _, el := range Elements {
		if el == element {
			return true
		}
	}
	return false
}
