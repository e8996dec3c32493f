package inbox

import "sort"

// ViewState is the set of expanded category groups for one session.
// The zero value is an empty state. Operations return new values and never
// modify their input.
type ViewState struct {
	expanded map[Category]struct{}
}

// NewViewState returns a state with every group collapsed.
func NewViewState() ViewState {
	return ViewState{}
}

// Toggle expands c if it is collapsed and collapses it otherwise.
func Toggle(s ViewState, c Category) ViewState {
	next := s.clone()
	if _, ok := next.expanded[c]; ok {
		delete(next.expanded, c)
	} else {
		next.expanded[c] = struct{}{}
	}
	return next
}

// Reconcile drops expanded keys whose category is absent from groups.
func Reconcile(s ViewState, groups []CategoryGroup) ViewState {
	present := make(map[Category]struct{}, len(groups))
	for _, g := range groups {
		present[g.Category] = struct{}{}
	}

	next := ViewState{expanded: make(map[Category]struct{}, len(s.expanded))}
	for c := range s.expanded {
		if _, ok := present[c]; ok {
			next.expanded[c] = struct{}{}
		}
	}
	return next
}

// Expanded reports whether the group for c is expanded.
func (s ViewState) Expanded(c Category) bool {
	_, ok := s.expanded[c]
	return ok
}

// Len returns the number of expanded groups.
func (s ViewState) Len() int {
	return len(s.expanded)
}

// Keys returns the expanded categories in taxonomy order, then Other, then
// anything else alphabetically.
func (s ViewState) Keys() []Category {
	keys := make([]Category, 0, len(s.expanded))
	for c := range s.expanded {
		keys = append(keys, c)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := rank(keys[i]), rank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func rank(c Category) int {
	for i, t := range Taxonomy {
		if t == c {
			return i
		}
	}
	if c == CategoryOther {
		return len(Taxonomy)
	}
	return len(Taxonomy) + 1
}

// Equal reports whether s and o expand the same categories.
func (s ViewState) Equal(o ViewState) bool {
	if len(s.expanded) != len(o.expanded) {
		return false
	}
	for c := range s.expanded {
		if !o.Expanded(c) {
			return false
		}
	}
	return true
}

func (s ViewState) clone() ViewState {
	next := ViewState{expanded: make(map[Category]struct{}, len(s.expanded)+1)}
	for c := range s.expanded {
		next.expanded[c] = struct{}{}
	}
	return next
}
