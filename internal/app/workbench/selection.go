package workbench

import (
	"github.com/dalemusser/promptstash/internal/app/services/lifecycle"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Selection is the bulk-select state over the visible prompt list.
type Selection struct {
	items    []primitive.ObjectID
	selected map[primitive.ObjectID]struct{}
}

func NewSelection(items []primitive.ObjectID) *Selection {
	s := &Selection{selected: map[primitive.ObjectID]struct{}{}}
	s.SetItems(items)
	return s
}

// SetItems replaces the visible list, dropping selections no longer in it.
func (s *Selection) SetItems(items []primitive.ObjectID) {
	s.items = append([]primitive.ObjectID(nil), items...)
	visible := make(map[primitive.ObjectID]struct{}, len(items))
	for _, id := range items {
		visible[id] = struct{}{}
	}
	for id := range s.selected {
		if _, ok := visible[id]; !ok {
			delete(s.selected, id)
		}
	}
}

// Toggle flips id and reports whether it is now selected. Ids not in the
// list are ignored.
func (s *Selection) Toggle(id primitive.ObjectID) bool {
	if !s.visible(id) {
		return false
	}
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		return false
	}
	s.selected[id] = struct{}{}
	return true
}

func (s *Selection) SelectAll() {
	for _, id := range s.items {
		s.selected[id] = struct{}{}
	}
}

func (s *Selection) Clear() {
	clear(s.selected)
}

func (s *Selection) IsSelected(id primitive.ObjectID) bool {
	_, ok := s.selected[id]
	return ok
}

// AllSelected drives the "select all" checkbox: true only for a non-empty
// list with every item selected.
func (s *Selection) AllSelected() bool {
	return len(s.items) > 0 && len(s.selected) == len(s.items)
}

func (s *Selection) Count() int { return len(s.selected) }

// Selected returns the selected ids in list order.
func (s *Selection) Selected() []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(s.selected))
	for _, id := range s.items {
		if _, ok := s.selected[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func (s *Selection) Items() []primitive.ObjectID {
	return append([]primitive.ObjectID(nil), s.items...)
}

// Reconcile applies a bulk delete outcome. Only ids the server confirmed
// deleted leave the list and the selection; failed ones stay selected so
// the user can retry.
func (s *Selection) Reconcile(res lifecycle.BulkResult) {
	gone := make(map[primitive.ObjectID]struct{}, len(res.Deleted))
	for _, id := range res.Deleted {
		gone[id] = struct{}{}
		delete(s.selected, id)
	}
	kept := s.items[:0]
	for _, id := range s.items {
		if _, ok := gone[id]; !ok {
			kept = append(kept, id)
		}
	}
	s.items = kept
}

func (s *Selection) visible(id primitive.ObjectID) bool {
	for _, v := range s.items {
		if v == id {
			return true
		}
	}
	return false
}
