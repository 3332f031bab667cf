package pricing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type tierFile struct {
	Tiers []Tier `yaml:"tiers"`
}

// LoadCalculator builds a calculator from a YAML tier file, or DefaultTiers when path is empty.
//
//	tiers:
//	  - min_amount: 2000000
//	    percentage: 12
func LoadCalculator(path string) (*Calculator, error) {
	if path == "" {
		return NewCalculator(DefaultTiers)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tiers file: %w", err)
	}
	return ParseTiers(raw)
}

func ParseTiers(raw []byte) (*Calculator, error) {
	var f tierFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse tiers: %w", err)
	}
	return NewCalculator(f.Tiers)
}
