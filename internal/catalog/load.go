package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type fileCommand struct {
	Patterns    []string `yaml:"patterns"`
	Action      string   `yaml:"action"`
	Description string   `yaml:"description"`
	Group       string   `yaml:"group"`
}

type fileCatalog struct {
	Commands []fileCommand `yaml:"commands"`
}

// Load reads a YAML catalog:
//
//	commands:
//	  - patterns: ["go home", "home page"]
//	    action: navigate:/
//	    description: Go to home page
//	    group: navigation
func Load(r io.Reader) (*Catalog, error) {
	var doc fileCatalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, ErrEmptyCatalog
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	defs := make([]Definition, 0, len(doc.Commands))
	for i, fc := range doc.Commands {
		action, err := ParseAction(fc.Action)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
		defs = append(defs, Definition{
			Patterns:    fc.Patterns,
			Action:      action,
			Description: fc.Description,
			Group:       fc.Group,
		})
	}

	return New(defs...)
}

func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
