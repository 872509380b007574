package skill

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest lists skills implemented outside the dispatcher's runtime.
// It is embedded in the binary, so loading it performs no filesystem access.
type Manifest struct {
	Skills []ManifestEntry `yaml:"skills"`
}

// ManifestEntry declares one external skill.
type ManifestEntry struct {
	Name               string `yaml:"name"`
	Language           string `yaml:"language"`
	Entrypoint         string `yaml:"entrypoint"`
	WorkDir            string `yaml:"workdir,omitempty"`
	Description        string `yaml:"description,omitempty"`
	Usage              string `yaml:"usage,omitempty"`
	RequiresCredential *bool  `yaml:"requires_credential,omitempty"` // defaults to true
}

// ParseManifest decodes manifest YAML into external commands.
func ParseManifest(data []byte) ([]Command, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse skill manifest: %w", err)
	}

	cmds := make([]Command, 0, len(m.Skills))
	for i, entry := range m.Skills {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("skills[%d]: name is required", i)
		}

		requires := true
		if entry.RequiresCredential != nil {
			requires = *entry.RequiresCredential
		}

		cmd := Command{
			Name:               name,
			Description:        entry.Description,
			Usage:              entry.Usage,
			Mode:               ModeExternal,
			RequiresCredential: requires,
			External: &External{
				Language:   strings.ToLower(strings.TrimSpace(entry.Language)),
				Entrypoint: strings.TrimSpace(entry.Entrypoint),
				WorkDir:    strings.TrimSpace(entry.WorkDir),
			},
		}
		if err := validateCommand(cmd); err != nil {
			return nil, fmt.Errorf("skills[%d]: %w", i, err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func validateExternal(ext *External) error {
	if ext.Language == "" {
		return fmt.Errorf("language is required")
	}
	if ext.Entrypoint == "" {
		return fmt.Errorf("entrypoint is required")
	}
	if err := checkRelative("entrypoint", ext.Entrypoint); err != nil {
		return err
	}
	if ext.WorkDir != "" {
		if err := checkRelative("workdir", ext.WorkDir); err != nil {
			return err
		}
	}
	return nil
}

// checkRelative keeps manifest paths inside the skills dir.
func checkRelative(field, p string) error {
	if filepath.IsAbs(p) {
		return fmt.Errorf("%s must be relative (got %q)", field, p)
	}
	clean := filepath.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%s escapes the skills dir (got %q)", field, p)
	}
	return nil
}
