// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadRegistry reads a registry file. The document is schema-checked before
// unmarshalling so a hand-edited file fails loudly instead of half-loading.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// SaveRegistry writes the registry, creating parent directories as needed.
func SaveRegistry(reg *ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := ValidateDocument(data); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Find returns the activity with the given ID, or nil.
func (r *ActivityRegistry) Find(id string) *Activity {
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			return &r.Activities[i]
		}
	}
	return nil
}

// Validate applies the document schema plus the uniqueness checks a JSON
// schema cannot express.
func (r *ActivityRegistry) Validate() error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := ValidateDocument(data); err != nil {
		return err
	}

	ids := make(map[string]bool, len(r.Activities))
	tasks := make(map[string]bool, len(r.Activities))
	for _, a := range r.Activities {
		if ids[a.ID] {
			return fmt.Errorf("duplicate activity ID: %s", a.ID)
		}
		ids[a.ID] = true
		if tasks[a.TaskType] {
			return fmt.Errorf("duplicate task type: %s", a.TaskType)
		}
		tasks[a.TaskType] = true
	}
	return nil
}
