package selection

import "github.com/llehouerou/crate/internal/catalog"

// NoAnchor marks the absence of a range anchor.
const NoAnchor = -1

// Modifiers describes the modifier keys held during a click or key press.
// LastIndex is the caller-owned anchor from the previous resolution; use NoAnchor
// when there is none.
type Modifiers struct {
	Ctrl      bool
	Shift     bool
	LastIndex int
}

// Resolution is the outcome of a pointer or keyboard selection.
type Resolution struct {
	Selection Set
	LastIndex int // new anchor, NoAnchor when the target was not found
}

// HandleKeyboardSelection resolves a click on targetID:
//   - unknown target: selection unchanged, anchor NoAnchor
//   - shift with a valid anchor: current selection plus the range anchor..target
//   - ctrl: toggle the target
//   - otherwise: select only the target
//
// The target's position becomes the new anchor.
func HandleKeyboardSelection(albums []catalog.Album, s Set, targetID string, mods Modifiers) Resolution {
	return NewIndex(albums).Resolve(s, targetID, mods)
}

// Resolve is HandleKeyboardSelection over a prebuilt index.
func (ix *Index) Resolve(s Set, targetID string, mods Modifiers) Resolution {
	target, ok := ix.Position(targetID)
	if !ok {
		return Resolution{Selection: s, LastIndex: NoAnchor}
	}

	anchorValid := mods.LastIndex >= 0 && mods.LastIndex < ix.Len()
	switch {
	case mods.Shift && anchorValid:
		return Resolution{Selection: Merge(s, ix.Range(mods.LastIndex, target)), LastIndex: target}
	case mods.Ctrl:
		return Resolution{Selection: Toggle(s, targetID), LastIndex: target}
	default:
		return Resolution{Selection: New(targetID), LastIndex: target}
	}
}
