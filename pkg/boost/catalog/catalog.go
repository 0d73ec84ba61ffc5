// Package catalog defines the fixed set of performance tweaks arcboost
// knows how to apply, and the actions that implement them.
//
// The catalog is static: tweaks are compiled in, identified by stable
// string ids, and grouped into display categories. Consumers look
// tweaks up by id or iterate the catalog in its canonical order.
package catalog

import (
	"fmt"
	"slices"
)

// Category groups tweaks for display.
type Category string

const (
	CategorySystem   Category = "System"
	CategoryNetwork  Category = "Network"
	CategoryGraphics Category = "Graphics"
)

// Categories returns all categories in display order.
func Categories() []Category {
	return []Category{CategorySystem, CategoryNetwork, CategoryGraphics}
}

// Tweak is one catalog entry: identity and display metadata plus the
// action that applies and reverts it.
type Tweak struct {
	// ID is the stable identifier used on the command line and as the
	// key in the applied-state record. It never changes once released.
	ID string

	// Name is the short human-readable title.
	Name string

	// Summary is a one-line description shown in listings.
	Summary string

	// Doc is a longer markdown explanation shown by the explain command.
	Doc string

	// Category is the display group.
	Category Category

	// RequiresElevation marks tweaks that touch machine-wide state and
	// need an elevated process.
	RequiresElevation bool

	// Reversible is false for tweaks whose effect cannot be undone.
	// Irreversible tweaks are never recorded in the applied state.
	Reversible bool

	// Action applies and reverts the tweak.
	Action Action
}

// Catalog is an ordered, immutable collection of tweaks.
type Catalog struct {
	tweaks []Tweak
	index  map[string]int
}

// New builds a catalog from the given tweaks, validating that ids are
// unique and every entry carries an action.
func New(tweaks []Tweak) (*Catalog, error) {
	index := make(map[string]int, len(tweaks))
	for i, tw := range tweaks {
		if tw.ID == "" {
			return nil, fmt.Errorf("tweak %d has an empty id", i)
		}
		if tw.Action == nil {
			return nil, fmt.Errorf("tweak %s has no action", tw.ID)
		}
		if _, dup := index[tw.ID]; dup {
			return nil, fmt.Errorf("duplicate tweak id %s", tw.ID)
		}
		index[tw.ID] = i
	}
	return &Catalog{tweaks: slices.Clone(tweaks), index: index}, nil
}

// Default returns the built-in catalog. The tweak data is compile-time
// constant, so construction cannot fail.
func Default() *Catalog {
	c, err := New(defaultTweaks())
	if err != nil {
		panic(fmt.Sprintf("catalog: invalid built-in tweaks: %v", err))
	}
	return c
}

// List returns the tweaks in catalog order.
func (c *Catalog) List() []Tweak {
	return slices.Clone(c.tweaks)
}

// Len returns the number of tweaks.
func (c *Catalog) Len() int { return len(c.tweaks) }

// Get looks a tweak up by id.
func (c *Catalog) Get(id string) (Tweak, bool) {
	i, ok := c.index[id]
	if !ok {
		return Tweak{}, false
	}
	return c.tweaks[i], true
}

// Has reports whether the catalog contains id.
func (c *Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// IDs returns all tweak ids in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.tweaks))
	for i, tw := range c.tweaks {
		ids[i] = tw.ID
	}
	return ids
}

// Group is one display category with its tweaks in catalog order.
type Group struct {
	Category Category
	Tweaks   []Tweak
}

// Grouped returns the tweaks bucketed by category, categories in
// display order, skipping empty ones.
func (c *Catalog) Grouped() []Group {
	groups := make([]Group, 0, len(Categories()))
	for _, cat := range Categories() {
		g := Group{Category: cat}
		for _, tw := range c.tweaks {
			if tw.Category == cat {
				g.Tweaks = append(g.Tweaks, tw)
			}
		}
		if len(g.Tweaks) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}
