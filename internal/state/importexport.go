package state

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/entrastudio/token-studio/internal/models"
)

// registryFile is the YAML document shape for registry import/export.
type registryFile struct {
	Apps []models.AppConfig `yaml:"apps"`
}

// ExportApps writes all registered apps as YAML.
func (s *State) ExportApps(w io.Writer) error {
	apps, err := s.AllApps()
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(registryFile{Apps: apps}); err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}

	return enc.Close()
}

// ImportApps reads a YAML registry document and creates each app,
// validating every entry. Existing apps are untouched; imported apps
// get fresh IDs. Returns the number of apps imported.
func (s *State) ImportApps(r io.Reader) (int, error) {
	var doc registryFile

	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return 0, fmt.Errorf("decoding registry: %w", err)
	}

	for i, app := range doc.Apps {
		if err := validateApp(app); err != nil {
			return 0, fmt.Errorf("app %d (%s): %w", i+1, app.Name, err)
		}
	}

	for _, app := range doc.Apps {
		if _, err := s.CreateApp(app); err != nil {
			return 0, err
		}
	}

	return len(doc.Apps), nil
}
