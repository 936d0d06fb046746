package timer

import "sort"

// Grouper derives category groups from a timer collection while tracking
// expand/collapse state independently of the derivation. The tracked set is
// merged, never replaced, so a category's state survives timers being
// added, removed or updated; categories seen for the first time default to
// expanded.
type Grouper struct {
	expanded map[string]bool
}

func NewGrouper() *Grouper {
	return &Grouper{expanded: make(map[string]bool)}
}

// Derive partitions timers by category. Categories are ordered
// alphabetically and timers within a group by name (byte order); both
// choices are deterministic across recomputation. Deriving twice with the
// same inputs yields the same groups and the same tracked set.
func (g *Grouper) Derive(timers []Timer) []CategoryGroup {
	byCategory := make(map[string][]Timer)
	var categories []string
	for _, t := range timers {
		if _, ok := byCategory[t.Category]; !ok {
			categories = append(categories, t.Category)
		}
		byCategory[t.Category] = append(byCategory[t.Category], t)
	}
	sort.Strings(categories)

	groups := make([]CategoryGroup, 0, len(categories))
	for _, cat := range categories {
		if _, tracked := g.expanded[cat]; !tracked {
			g.expanded[cat] = true
		}
		members := byCategory[cat]
		sort.Slice(members, func(i, j int) bool {
			return members[i].Name < members[j].Name
		})
		groups = append(groups, CategoryGroup{
			Category:   cat,
			Timers:     members,
			IsExpanded: g.expanded[cat],
		})
	}
	return groups
}

// Toggle flips the expansion state of a category.
func (g *Grouper) Toggle(category string) {
	g.expanded[category] = !g.IsExpanded(category)
}

// IsExpanded reports the tracked state; untracked categories default to
// expanded.
func (g *Grouper) IsExpanded(category string) bool {
	v, ok := g.expanded[category]
	if !ok {
		return true
	}
	return v
}
