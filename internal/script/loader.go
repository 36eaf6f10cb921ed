package script

import (
	"embed"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed personas/*.yaml
var personaFS embed.FS

// Parse decodes and validates a script from YAML.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads a script from a YAML file on disk.
func Load(filePath string) (*Script, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", filePath, err)
	}
	return Parse(data)
}

// Builtin returns one of the embedded persona scripts by persona name.
func Builtin(name string) (*Script, error) {
	data, err := personaFS.ReadFile(path.Join("personas", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown builtin persona %q (available: %s)",
			name, strings.Join(BuiltinNames(), ", "))
	}
	return Parse(data)
}

// BuiltinNames lists the embedded personas, sorted.
func BuiltinNames() []string {
	entries, err := personaFS.ReadDir("personas")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}
