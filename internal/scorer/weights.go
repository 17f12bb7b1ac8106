// Package scorer maintains decay-weighted trust scores per (vendor, persona)
// pair from discrepancy flag vectors.
package scorer

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Profile describes one persona's severity weighting: slots in
// [BoostStart, BoostEnd] weigh BoostWeight, all others weigh 1.0.
type Profile struct {
	Name        string  `yaml:"name"`
	BoostStart  int     `yaml:"boost_start"`
	BoostEnd    int     `yaml:"boost_end"`
	BoostWeight float64 `yaml:"boost_weight"`
}

// DefaultProfiles returns the built-in personas. Each doubles the weight of a
// contiguous ten-slot band of the discrepancy vector.
func DefaultProfiles() []Profile {
	return []Profile{
		{Name: "margin", BoostStart: 0, BoostEnd: 9, BoostWeight: 2.0},
		{Name: "compliance", BoostStart: 10, BoostEnd: 19, BoostWeight: 2.0},
		{Name: "operations", BoostStart: 20, BoostEnd: 29, BoostWeight: 2.0},
	}
}

// WeightTable holds the expanded per-persona weight vectors. It is built once
// and never mutated afterwards; the scorer holds it by reference.
type WeightTable struct {
	weights        map[string][]float64
	defaultPersona string
}

// NewWeightTable expands profiles into fixed-length weight vectors.
func NewWeightTable(profiles []Profile, vectorLen int, defaultPersona string) (*WeightTable, error) {
	if vectorLen <= 0 {
		return nil, eris.Errorf("scorer: vector length must be > 0, got %d", vectorLen)
	}

	var errs []string
	weights := make(map[string][]float64, len(profiles))
	for _, p := range profiles {
		if p.Name == "" {
			errs = append(errs, "profile name must not be empty")
			continue
		}
		if p.BoostStart < 0 || p.BoostEnd < p.BoostStart {
			errs = append(errs, fmt.Sprintf("%s: invalid boost range [%d, %d]", p.Name, p.BoostStart, p.BoostEnd))
			continue
		}
		if p.BoostWeight <= 0 {
			errs = append(errs, fmt.Sprintf("%s: boost weight must be > 0", p.Name))
			continue
		}
		w := make([]float64, vectorLen)
		for i := range w {
			if i >= p.BoostStart && i <= p.BoostEnd {
				w[i] = p.BoostWeight
			} else {
				w[i] = 1.0
			}
		}
		weights[p.Name] = w
	}
	if len(errs) > 0 {
		return nil, eris.Errorf("scorer: profile validation failed: %s", strings.Join(errs, "; "))
	}

	if _, ok := weights[defaultPersona]; !ok {
		return nil, eris.Errorf("scorer: default persona %q has no profile", defaultPersona)
	}

	return &WeightTable{weights: weights, defaultPersona: defaultPersona}, nil
}

// For returns the weight vector for persona, falling back to the default
// persona when unknown. The second return is the persona actually used.
func (t *WeightTable) For(persona string) ([]float64, string) {
	if w, ok := t.weights[persona]; ok {
		return w, persona
	}
	return t.weights[t.defaultPersona], t.defaultPersona
}

// Personas lists the configured persona names.
func (t *WeightTable) Personas() []string {
	names := make([]string, 0, len(t.weights))
	for name := range t.weights {
		names = append(names, name)
	}
	return names
}

type profileFile struct {
	Personas []Profile `yaml:"personas"`
}

// LoadProfiles reads persona profiles from a YAML file.
func LoadProfiles(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: read profiles %s", path)
	}

	var f profileFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "scorer: parse profiles %s", path)
	}
	if len(f.Personas) == 0 {
		return nil, eris.Errorf("scorer: no personas in %s", path)
	}
	return f.Personas, nil
}
