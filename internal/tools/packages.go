package tools

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tool_packages.yaml
var defaultPackagesYAML []byte

// Packages maps package names to the tool names they expose. Operators
// select one package per server; unknown names are a configuration error.
type Packages map[string][]string

// LoadPackages reads tool packages from path, or the embedded defaults
// when path is empty.
func LoadPackages(path string) (Packages, error) {
	data := defaultPackagesYAML
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read tool packages: %w", err)
		}
		data = fileData
	}

	var doc struct {
		Packages map[string][]string `yaml:"packages"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse tool packages: %w", err)
	}
	if len(doc.Packages) == 0 {
		return nil, fmt.Errorf("tool packages file defines no packages")
	}
	return doc.Packages, nil
}

// Names returns the sorted package names.
func (p Packages) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select resolves a package name into tool definitions.
func (p Packages) Select(name string) ([]Definition, error) {
	toolNames, ok := p[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool package %q (known: %s)", name, strings.Join(p.Names(), ", "))
	}

	byName := make(map[string]Definition)
	for _, def := range All() {
		byName[def.Tool.Name] = def
	}

	defs := make([]Definition, 0, len(toolNames))
	for _, toolName := range toolNames {
		def, ok := byName[toolName]
		if !ok {
			return nil, fmt.Errorf("tool package %q references unknown tool %q", name, toolName)
		}
		defs = append(defs, def)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("tool package %q exposes no tools", name)
	}
	return defs, nil
}
