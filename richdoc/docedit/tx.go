package docedit

import (
	"github.com/RamRamez/test-editors/richdoc/common"
	"github.com/RamRamez/test-editors/richdoc/doccodec"
	"github.com/RamRamez/test-editors/richdoc/doctree"
)

// Tx is the handle a transaction mutates the document through.
// It is only valid inside the function passed to Session.Update.
type Tx struct {
	s      *Session
	tree   *doctree.Tree
	closed bool
}

// Tree returns the tree of the transaction for reads. Mutate it only
// through the Tx methods. Returns nil once the transaction has ended; a
// pointer kept past that point no longer belongs to the session.
func (tx *Tx) Tree() *doctree.Tree {
	if tx.closed {
		return nil
	}
	return tx.tree
}

// Registry returns the registry of the session.
func (tx *Tx) Registry() *doctree.Registry {
	return tx.s.reg
}

func (tx *Tx) check() error {
	if tx.closed {
		return common.ErrTransactionClosed{}
	}
	return nil
}

// restore swaps in a copy of target, retiring every key the current tree
// has used that target does not hold.
func (tx *Tx) restore(target *doctree.Tree) {
	t := target.Copy()
	t.RetireFrom(tx.tree)
	tx.tree = t
}

// Create builds a detached node with the session registry.
func (tx *Tx) Create(typ string, fields common.Fields) (*doctree.Node, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	return tx.s.reg.Create(typ, fields)
}

// Import rebuilds a detached subtree from its serialized form.
func (tx *Tx) Import(sn *doccodec.SerializedNode) (*doctree.Fragment, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	return doccodec.Import(tx.s.reg, sn)
}

func (tx *Tx) Insert(parent common.Key, index int, n *doctree.Node) error {
	if err := tx.check(); err != nil {
		return err
	}
	return tx.tree.Insert(parent, index, n)
}

func (tx *Tx) InsertFragment(parent common.Key, index int, f *doctree.Fragment) error {
	if err := tx.check(); err != nil {
		return err
	}
	return tx.tree.InsertFragment(parent, index, f)
}

func (tx *Tx) Remove(key common.Key) error {
	if err := tx.check(); err != nil {
		return err
	}
	return tx.tree.Remove(key)
}

func (tx *Tx) Move(key, parent common.Key, index int) error {
	if err := tx.check(); err != nil {
		return err
	}
	return tx.tree.Move(key, parent, index)
}

func (tx *Tx) Replace(key common.Key, f *doctree.Fragment) error {
	if err := tx.check(); err != nil {
		return err
	}
	return tx.tree.Replace(key, f)
}

func (tx *Tx) ReplaceBlockType(key common.Key, newType string, mapper doctree.FieldMapper) (common.Key, error) {
	if err := tx.check(); err != nil {
		return common.NilKey, err
	}
	return tx.tree.ReplaceBlockType(key, newType, mapper)
}

func (tx *Tx) SetFields(key common.Key, update common.Fields) error {
	if err := tx.check(); err != nil {
		return err
	}
	return tx.tree.SetFields(key, update)
}

func (tx *Tx) SplitText(key common.Key, offset int) (common.Key, error) {
	if err := tx.check(); err != nil {
		return common.NilKey, err
	}
	return tx.tree.SplitText(key, offset)
}

func (tx *Tx) InsertAtSelection(n *doctree.Node) error {
	if err := tx.check(); err != nil {
		return err
	}
	return tx.tree.InsertAtSelection(n)
}

func (tx *Tx) InsertFragmentAtSelection(f *doctree.Fragment) error {
	if err := tx.check(); err != nil {
		return err
	}
	return tx.tree.InsertFragmentAtSelection(f)
}

func (tx *Tx) SetSelection(sel doctree.Selection) error {
	if err := tx.check(); err != nil {
		return err
	}
	return tx.tree.SetSelection(sel)
}

func (tx *Tx) CollapseTo(key common.Key, offset int) error {
	if err := tx.check(); err != nil {
		return err
	}
	return tx.tree.CollapseTo(key, offset)
}

func (tx *Tx) ClearSelection() error {
	if err := tx.check(); err != nil {
		return err
	}
	tx.tree.ClearSelection()
	return nil
}
