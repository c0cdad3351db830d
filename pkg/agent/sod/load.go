package sod

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type rulesDoc struct {
	Rules []*Rule `yaml:"sodRules"`
}

// LoadRules reads separation-of-duties rules from a YAML file.
func LoadRules(path string) ([]*Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sod rules: %w", err)
	}
	var doc rulesDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse sod rules %s: %w", path, err)
	}
	return doc.Rules, nil
}
