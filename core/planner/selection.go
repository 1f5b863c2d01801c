package planner

import "sort"

// TriState is the checklist select-all indicator.
type TriState int

const (
	SelectedNone TriState = iota // unchecked
	SelectedSome                 // indeterminate
	SelectedAll                  // checked
)

// Selection tracks the event ids picked for bulk actions. It is scoped to the
// currently rendered checklist; ids that drop out of the checklist must be
// reconciled away since the store gives no such guarantee.
type Selection struct {
	ids map[string]struct{}
}

func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Toggle adds id to the selection, or removes it if already selected.
func (s *Selection) Toggle(id string) {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
	} else {
		s.ids[id] = struct{}{}
	}
}

func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Count() int { return len(s.ids) }

// IDs returns the selected ids in stable (sorted) order.
func (s *Selection) IDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SelectAll selects every currently rendered id, replacing the selection.
func (s *Selection) SelectAll(rendered []string) {
	s.ids = make(map[string]struct{}, len(rendered))
	for _, id := range rendered {
		s.ids[id] = struct{}{}
	}
}

func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
}

// Reconcile drops selected ids that are no longer part of the rendered
// checklist, e.g. after a snapshot replaced the event list.
func (s *Selection) Reconcile(rendered []string) {
	keep := make(map[string]struct{}, len(rendered))
	for _, id := range rendered {
		keep[id] = struct{}{}
	}
	for id := range s.ids {
		if _, ok := keep[id]; !ok {
			delete(s.ids, id)
		}
	}
}

// State derives the select-all tri-state for the rendered checklist.
func (s *Selection) State(rendered []string) TriState {
	if len(s.ids) == 0 || len(rendered) == 0 {
		return SelectedNone
	}
	var selected int
	for _, id := range rendered {
		if s.Has(id) {
			selected++
		}
	}
	switch {
	case selected == 0:
		return SelectedNone
	case selected == len(rendered):
		return SelectedAll
	default:
		return SelectedSome
	}
}
