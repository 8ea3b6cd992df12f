package main

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/midbel/xee/xpath"
)

type queryConfig struct {
	Version     int                 `yaml:"version"`
	Timezone    string              `yaml:"timezone"`
	Namespaces  map[string]string   `yaml:"namespaces"`
	Variables   map[string]any      `yaml:"variables"`
	Documents   map[string]string   `yaml:"documents"`
	Collections map[string][]string `yaml:"collections"`
}

func getCompilerOptions(file string, popts ParserOptions) ([]xpath.Option, error) {
	buf, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var config queryConfig
	if err := yaml.Unmarshal(buf, &config); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	var options []xpath.Option
	if config.Version != 0 {
		options = append(options, xpath.WithVersion(config.Version))
	}
	if config.Timezone != "" {
		loc, err := time.LoadLocation(config.Timezone)
		if err != nil {
			return nil, err
		}
		options = append(options, xpath.WithTimezone(loc))
	}
	for prefix, uri := range config.Namespaces {
		options = append(options, xpath.WithNamespace(prefix, uri))
	}
	for name, value := range config.Variables {
		options = append(options, xpath.WithVariable(name, value))
	}
	for uri, file := range config.Documents {
		doc, err := parseDocument(file, popts)
		if err != nil {
			return nil, err
		}
		options = append(options, xpath.WithDocument(uri, doc))
	}
	for uri, files := range config.Collections {
		var docs []any
		for _, f := range files {
			doc, err := parseDocument(f, popts)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
		options = append(options, xpath.WithCollection(uri, docs...))
	}
	return options, nil
}
