package docedit

import (
	"github.com/RamRamez/test-editors/richdoc/doctree"
)

// History keeps committed trees for undo and redo. It lives in memory only.
type History struct {
	limit int
	undo  []*doctree.Tree
	redo  []*doctree.Tree
}

func newHistory(limit int) *History {
	return &History{limit: limit}
}

// CanUndo reports whether an undo step is available.
func (h *History) CanUndo() bool {
	return len(h.undo) > 0
}

// CanRedo reports whether a redo step is available.
func (h *History) CanRedo() bool {
	return len(h.redo) > 0
}

// Len returns the number of undo and redo steps held.
func (h *History) Len() (undo, redo int) {
	return len(h.undo), len(h.redo)
}

// record stores the state before a regular commit and drops the redo stack.
func (h *History) record(prev *doctree.Tree) {
	h.pushUndo(prev)
	h.redo = nil
}

func (h *History) pushUndo(t *doctree.Tree) {
	if h.limit <= 0 {
		return
	}
	h.undo = append(h.undo, t)
	if over := len(h.undo) - h.limit; over > 0 {
		h.undo = append([]*doctree.Tree(nil), h.undo[over:]...)
	}
}

func (h *History) pushRedo(t *doctree.Tree) {
	if h.limit <= 0 {
		return
	}
	h.redo = append(h.redo, t)
}

func (h *History) popUndo() *doctree.Tree {
	t := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	return t
}

func (h *History) popRedo() *doctree.Tree {
	t := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	return t
}
