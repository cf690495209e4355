// Package catalog holds the ordered list of voice commands the engine
// understands. Order matters: earlier entries win when several match.
package catalog

import (
	"errors"
	"fmt"

	"voxguide/internal/utterance"
)

type Definition struct {
	Patterns    []string
	Action      Action
	Description string
	Group       string
}

type Catalog struct {
	defs []Definition
}

var ErrEmptyCatalog = errors.New("catalog has no commands")

// New validates defs, normalizes their patterns and keeps them in the
// order given.
func New(defs ...Definition) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, ErrEmptyCatalog
	}

	out := make([]Definition, 0, len(defs))
	for i, d := range defs {
		if d.Action == nil {
			return nil, fmt.Errorf("command %d (%q): missing action", i, d.Description)
		}
		if d.Description == "" {
			return nil, fmt.Errorf("command %d (%s): missing description", i, d.Action)
		}

		patterns := make([]string, 0, len(d.Patterns))
		for _, p := range d.Patterns {
			if p = utterance.Normalize(p); p != "" {
				patterns = append(patterns, p)
			}
		}
		if len(patterns) == 0 {
			return nil, fmt.Errorf("command %d (%s): no patterns", i, d.Action)
		}

		d.Patterns = patterns
		out = append(out, d)
	}

	return &Catalog{defs: out}, nil
}

// List returns the commands in priority order. The slice is a copy.
func (c *Catalog) List() []Definition {
	out := make([]Definition, len(c.defs))
	for i, d := range c.defs {
		d.Patterns = append([]string(nil), d.Patterns...)
		out[i] = d
	}
	return out
}

func (c *Catalog) Len() int { return len(c.defs) }

// Groups returns the commands bucketed by Group, preserving catalog
// order inside each bucket and first-seen order of the buckets.
func (c *Catalog) Groups() ([]string, map[string][]Definition) {
	var names []string
	byName := make(map[string][]Definition)
	for _, d := range c.List() {
		if _, ok := byName[d.Group]; !ok {
			names = append(names, d.Group)
		}
		byName[d.Group] = append(byName[d.Group], d)
	}
	return names, byName
}
