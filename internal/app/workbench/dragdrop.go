package workbench

import (
	"slices"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ItemKind string

const (
	KindPrompt ItemKind = "prompt"
	KindFolder ItemKind = "folder"
)

// DragItem is the thing being dragged.
type DragItem struct {
	Kind ItemKind
	ID   primitive.ObjectID
}

// Zone is a drop target. A nil FolderID is the team root.
type Zone struct {
	ID       string
	FolderID *primitive.ObjectID
	Accepts  []ItemKind
}

// FolderZone is the drop target for a folder in the sidebar tree.
func FolderZone(folderID primitive.ObjectID) Zone {
	return Zone{ID: "folder:" + folderID.Hex(), FolderID: &folderID, Accepts: []ItemKind{KindPrompt, KindFolder}}
}

// RootZone is the "All prompts" target.
func RootZone() Zone {
	return Zone{ID: "root", Accepts: []ItemKind{KindPrompt, KindFolder}}
}

// MoveIntent is what a successful drop asks for: put Item into FolderID
// (nil for the root).
type MoveIntent struct {
	Item     DragItem
	FolderID *primitive.ObjectID
}

type DragState int

const (
	DragIdle DragState = iota
	Dragging
	DragOver
)

func (s DragState) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case DragOver:
		return "over"
	default:
		return "idle"
	}
}

// DragDrop tracks one drag gesture: idle → dragging ⇄ over → idle.
type DragDrop struct {
	state DragState
	item  DragItem
	over  string
}

func (d *DragDrop) State() DragState { return d.state }

// Item returns the dragged item while a drag is active.
func (d *DragDrop) Item() (DragItem, bool) {
	return d.item, d.state != DragIdle
}

// OverZone returns the id of the zone being hovered, if any.
func (d *DragDrop) OverZone() string { return d.over }

func (d *DragDrop) Start(item DragItem) {
	d.state = Dragging
	d.item = item
	d.over = ""
}

// Over enters zone. Zones that do not accept the item are not highlighted.
func (d *DragDrop) Over(zone Zone) {
	if d.state == DragIdle {
		return
	}
	if !d.CanDrop(zone) {
		d.Leave()
		return
	}
	d.state = DragOver
	d.over = zone.ID
}

func (d *DragDrop) Leave() {
	if d.state == DragOver {
		d.state = Dragging
	}
	d.over = ""
}

// CanDrop reports whether zone accepts the dragged item. A folder cannot
// be dropped onto itself.
func (d *DragDrop) CanDrop(zone Zone) bool {
	if d.state == DragIdle || !slices.Contains(zone.Accepts, d.item.Kind) {
		return false
	}
	if d.item.Kind == KindFolder && zone.FolderID != nil && *zone.FolderID == d.item.ID {
		return false
	}
	return true
}

// Drop ends the drag on zone and returns the resulting move, if any.
func (d *DragDrop) Drop(zone Zone) (MoveIntent, bool) {
	defer d.End()
	if !d.CanDrop(zone) {
		return MoveIntent{}, false
	}
	return MoveIntent{Item: d.item, FolderID: copyID(zone.FolderID)}, true
}

// End cancels the drag.
func (d *DragDrop) End() {
	d.state = DragIdle
	d.item = DragItem{}
	d.over = ""
}
