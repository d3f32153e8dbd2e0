package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shaharia-lab/notifyd/internal/notification"
)

// categoriesFile is the on-disk shape of categories.yaml.
//
//	categories:
//	  REMINDER:
//	    title: Reminders
//	    actions:
//	      SNOOZE_ACTION: Later
type categoriesFile struct {
	Categories map[notification.Category]categoryOverride `yaml:"categories"`
}

type categoryOverride struct {
	Title   string            `yaml:"title"`
	Actions map[string]string `yaml:"actions"`
}

// LoadCategories returns the built-in categories with any titles overridden
// from path. A missing file is not an error. Identifiers cannot be changed;
// unknown categories or actions in the file are rejected.
func LoadCategories(path string) ([]notification.CategoryDefinition, error) {
	defs := notification.DefaultCategories()

	//nolint:gosec // path is derived from the configured data directory
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return defs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading categories file %q: %w", path, err)
	}

	var f categoriesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing categories file %q: %w", path, err)
	}

	index := make(map[notification.Category]int, len(defs))
	for i, d := range defs {
		index[d.ID] = i
	}
	for id, o := range f.Categories {
		i, ok := index[id]
		if !ok {
			return nil, fmt.Errorf("categories file: unknown category %q", id)
		}
		if o.Title != "" {
			defs[i].Title = o.Title
		}
		for actionID, title := range o.Actions {
			if err := retitle(&defs[i], actionID, title); err != nil {
				return nil, err
			}
		}
	}
	return defs, nil
}

func retitle(def *notification.CategoryDefinition, actionID, title string) error {
	for j := range def.Actions {
		if def.Actions[j].ID == actionID {
			if title != "" {
				def.Actions[j].Title = title
			}
			return nil
		}
	}
	return fmt.Errorf("categories file: category %q has no action %q", def.ID, actionID)
}
