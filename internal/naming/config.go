package naming

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the YAML form of a DefaultResolver:
//
//	convention: camel
//	collections:
//	  Person: people
//	properties:
//	  Person.Name: fullName
//	group_keys:
//	  key: k
type Config struct {
	Convention  string            `yaml:"convention"`
	Collections map[string]string `yaml:"collections"`
	Properties  map[string]string `yaml:"properties"`
	GroupKeys   map[string]string `yaml:"group_keys"`
}

// LoadConfig reads a naming configuration file. Unknown fields are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read naming config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses a naming configuration document.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse naming config: %w", err)
	}
	if _, err := parseConvention(cfg.Convention); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolver builds the DefaultResolver described by c.
func (c *Config) Resolver() *DefaultResolver {
	convention, _ := parseConvention(c.Convention)
	opts := []Option{WithConvention(convention)}
	for k, v := range c.Collections {
		opts = append(opts, WithCollection(k, v))
	}
	for k, v := range c.Properties {
		opts = append(opts, WithProperty(k, v))
	}
	for k, v := range c.GroupKeys {
		opts = append(opts, WithGroupKey(k, v))
	}
	return NewResolver(opts...)
}

func parseConvention(s string) (Convention, error) {
	switch s {
	case "", "identity":
		return Identity, nil
	case "camel", "camelCase":
		return CamelCase, nil
	}
	return Identity, fmt.Errorf("unknown naming convention %q (want identity or camel)", s)
}
