package docedit

import (
	"github.com/RamRamez/test-editors/richdoc/doccodec"
	"github.com/RamRamez/test-editors/richdoc/doctree"
)

// Listener receives one event per committed, tree-changing transaction.
// A returned error is logged; it never rolls the transaction back.
type Listener func(ev *ChangeEvent) error

// Unsubscribe removes a listener. Calling it more than once is harmless.
type Unsubscribe func()

// ChangeEvent describes a commit. Tree and Previous hold the document after
// and before the transaction. They are copies owned by the event, so edits
// to them never reach the session.
// Serialized forms are computed on first use and cached, so a commit costs
// nothing extra when no listener asks for them.
type ChangeEvent struct {
	Session  string
	Revision uint64
	Tree     *doctree.Tree
	Previous *doctree.Tree

	reg *doctree.Registry

	snapshot    *doccodec.SerializedNode
	snapshotErr error
	snapshotted bool

	json    []byte
	jsonErr error
	jsoned  bool

	patch    []byte
	patchErr error
	patched  bool
}

// Snapshot returns the serialized committed tree.
func (ev *ChangeEvent) Snapshot() (*doccodec.SerializedNode, error) {
	if !ev.snapshotted {
		ev.snapshot, ev.snapshotErr = doccodec.Export(ev.reg, ev.Tree)
		ev.snapshotted = true
	}
	return ev.snapshot, ev.snapshotErr
}

// JSON returns the committed tree encoded as JSON.
func (ev *ChangeEvent) JSON() ([]byte, error) {
	if !ev.jsoned {
		sn, err := ev.Snapshot()
		if err == nil {
			ev.json, err = doccodec.Marshal(sn)
		}
		ev.jsonErr = err
		ev.jsoned = true
	}
	return ev.json, ev.jsonErr
}

// Patch returns the RFC 7396 merge patch from the previous committed tree to
// the current one. Without a previous tree the patch is the whole document.
func (ev *ChangeEvent) Patch() ([]byte, error) {
	if !ev.patched {
		ev.patch, ev.patchErr = ev.computePatch()
		ev.patched = true
	}
	return ev.patch, ev.patchErr
}

func (ev *ChangeEvent) computePatch() ([]byte, error) {
	next, err := ev.JSON()
	if err != nil {
		return nil, err
	}
	if ev.Previous == nil {
		return next, nil
	}
	prev, err := doccodec.ExportJSON(ev.reg, ev.Previous)
	if err != nil {
		return nil, err
	}
	return doccodec.MergePatch(prev, next)
}
