package workflow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type definitionsDoc struct {
	Workflows []*Definition `yaml:"workflows"`
}

// LoadDefinitions reads workflow definitions from a YAML file.
func LoadDefinitions(path string) ([]*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow definitions: %w", err)
	}
	var doc definitionsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse workflow definitions %s: %w", path, err)
	}
	return doc.Workflows, nil
}
