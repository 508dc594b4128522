package script

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// manifest is the on-disk form of a Definition. The script body is either
// inline (source) or in a file next to the manifest (source_file).
type manifest struct {
	Definition `yaml:",inline"`
	SourceFile string `yaml:"source_file"`
}

// LoadDefinitions reads every *.yaml manifest in dir, sorted by file name.
func LoadDefinitions(fsys afero.Fs, dir string) ([]Definition, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read script directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ext := path.Ext(entry.Name()); ext == ".yaml" || ext == ".yml" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		def, err := LoadDefinition(fsys, path.Join(dir, name))
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// LoadDefinition reads a single manifest.
func LoadDefinition(fsys afero.Fs, file string) (Definition, error) {
	data, err := afero.ReadFile(fsys, file)
	if err != nil {
		return Definition{}, NewScriptError(ErrorTypeNotFound, "", "", "failed to read manifest "+file, err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Definition{}, NewScriptError(ErrorTypeInvalidConfig, "", "", "failed to parse manifest "+file, err)
	}

	def := m.Definition
	if m.SourceFile != "" {
		if def.Source != "" {
			return Definition{}, NewScriptError(ErrorTypeInvalidConfig, def.Name, def.Handler,
				"manifest "+file+" sets both source and source_file", nil)
		}
		src, err := afero.ReadFile(fsys, path.Join(path.Dir(file), m.SourceFile))
		if err != nil {
			return Definition{}, NewScriptError(ErrorTypeNotFound, def.Name, def.Handler, "failed to read script source", err)
		}
		def.Source = string(src)
	}
	if strings.TrimSpace(def.Source) == "" {
		return Definition{}, NewScriptError(ErrorTypeInvalidConfig, def.Name, def.Handler,
			"manifest "+file+" has no script source", nil)
	}
	return def, nil
}
