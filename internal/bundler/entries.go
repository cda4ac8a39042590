package bundler

import (
	"fmt"
	"slices"
)

// Entries is the ordered entry list of a compiler. Plugins may add to it
// from the EntryOption hook.
type Entries struct {
	context string
	list    []EntryPoint
}

// Context is the directory entry imports resolve against.
func (e *Entries) Context() string {
	return e.context
}

func (e *Entries) HasEntry(name string) bool {
	return slices.ContainsFunc(e.list, func(entry EntryPoint) bool {
		return entry.Name == name
	})
}

// AddEntry appends a named entry.
func (e *Entries) AddEntry(name, file string) error {
	if name == "" || file == "" {
		return fmt.Errorf("entry needs both a name and an import")
	}
	if e.HasEntry(name) {
		return fmt.Errorf("duplicate entry %q", name)
	}
	e.list = append(e.list, EntryPoint{Name: name, Import: file})
	return nil
}

// List returns a copy of the entries in order.
func (e *Entries) List() []EntryPoint {
	return slices.Clone(e.list)
}
