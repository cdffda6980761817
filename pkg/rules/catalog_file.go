package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadCatalog reads a YAML override file and applies it on top of the
// built-in catalog.
//
// Weights and homoglyphs merge key by key; lists replace the default list
// entirely; thresholds replace individual fields that are set.
//
// Example:
//
//	version: "2026.10-tuned"
//	weights:
//	  KnownShortener: 25
//	shorteners: [bit.ly, tinyurl.com, s.id]
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog applies YAML overrides to the built-in catalog and
// validates the result.
func ParseCatalog(data []byte) (*Catalog, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
