package fraud

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/zhouzirui/scam-shield/backend/internal/fault"
)

//go:embed categories.toml
var seedDocument string

type document struct {
	Categories []Category `toml:"category"`
	Advice     []Advice   `toml:"advice"`
}

// Seed loads the built-in knowledge base. It panics on a malformed document
// because the document ships with the binary.
func Seed() *MemoryStore {
	store, err := Parse(seedDocument)
	if err != nil {
		panic(fmt.Sprintf("fraud: built-in knowledge base is invalid: %v", err))
	}
	return store
}

// Parse decodes and validates a knowledge base document.
func Parse(doc string) (*MemoryStore, error) {
	var d document
	if _, err := toml.Decode(doc, &d); err != nil {
		var cfgErr *fault.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, cfgErr
		}
		return nil, &fault.ConfigurationError{Key: "knowledge-base", Reason: err.Error()}
	}

	seen := make(map[string]struct{}, len(d.Categories))
	for i, c := range d.Categories {
		if c.ID == "" {
			return nil, &fault.ConfigurationError{Key: fmt.Sprintf("category[%d].id", i), Reason: "id is required"}
		}
		if _, dup := seen[c.ID]; dup {
			return nil, &fault.ConfigurationError{Key: fmt.Sprintf("category[%d].id", i), Reason: fmt.Sprintf("duplicate id %q", c.ID)}
		}
		seen[c.ID] = struct{}{}
		if c.Icon == IconUnknown {
			return nil, &fault.ConfigurationError{Key: fmt.Sprintf("category[%d].icon", i), Reason: "icon is required"}
		}
	}

	return NewMemoryStore(d.Categories, d.Advice), nil
}
