package grades

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Range persists as a two-element [min, max] array, the on-disk layout the
// grade table has always used.
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{r.Min, r.Max})
}

func (r *Range) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode range: %w", err)
	}
	r.Min = pair[0]
	r.Max = pair[1]
	return nil
}

// LoadFile reads a grade table from a JSON file and builds a registry.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grade specs: %w", err)
	}
	var table map[string]Spec
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("decode grade specs: %w", err)
	}
	specs := make([]Spec, 0, len(table))
	for name, s := range table {
		if s.Grade == "" {
			s.Grade = name
		}
		specs = append(specs, s)
	}
	return New(specs)
}

// SaveFile writes the registry's grade table as JSON.
func (r *Registry) SaveFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create grade specs dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(r.specs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode grade specs: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write grade specs: %w", err)
	}
	return nil
}
