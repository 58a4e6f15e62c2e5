package selection

// TagSet is the set of tag labels attached to a card.
// Labels are compared exactly; no case folding or trimming is applied.
type TagSet map[string]struct{}

// NewTagSet builds a TagSet from the given labels. Duplicates collapse.
func NewTagSet(labels ...string) TagSet {
	set := make(TagSet, len(labels))
	for _, label := range labels {
		set[label] = struct{}{}
	}
	return set
}

// Has reports whether label is a member of the set.
func (s TagSet) Has(label string) bool {
	_, ok := s[label]
	return ok
}

// TagCriterion is an inclusion/exclusion predicate over a card's tags.
// A card matches when it carries every included tag and none of the excluded ones.
type TagCriterion struct {
	Included []string `json:"included_tags"`
	Excluded []string `json:"excluded_tags"`
}

// Matches reports whether tags satisfies the criterion:
// Included ⊆ tags and Excluded ∩ tags = ∅.
func (c TagCriterion) Matches(tags TagSet) bool {
	for _, tag := range c.Included {
		if !tags.Has(tag) {
			return false
		}
	}
	for _, tag := range c.Excluded {
		if tags.Has(tag) {
			return false
		}
	}
	return true
}

// Satisfiable reports whether any tag set could match the criterion.
// It is false exactly when some tag is both included and excluded.
func (c TagCriterion) Satisfiable() bool {
	if len(c.Included) == 0 || len(c.Excluded) == 0 {
		return true
	}
	included := NewTagSet(c.Included...)
	for _, tag := range c.Excluded {
		if included.Has(tag) {
			return false
		}
	}
	return true
}

// IsEmpty reports whether the criterion places no constraint on tags.
func (c TagCriterion) IsEmpty() bool {
	return len(c.Included) == 0 && len(c.Excluded) == 0
}

// distinct returns labels with duplicates removed, preserving first-seen order.
func distinct(labels []string) []string {
	if len(labels) < 2 {
		return labels
	}
	seen := make(TagSet, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if seen.Has(label) {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}

// Normalized returns a copy of the criterion with duplicate labels removed.
// Stores that push the criterion down into SQL rely on distinct inclusion labels
// for their count comparison.
func (c TagCriterion) Normalized() TagCriterion {
	return TagCriterion{
		Included: distinct(c.Included),
		Excluded: distinct(c.Excluded),
	}
}
