// Package docedit runs edits against a document as atomic transactions and
// notifies subscribers once per committed change.
package docedit

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/RamRamez/test-editors/richdoc/common"
	"github.com/RamRamez/test-editors/richdoc/doccodec"
	"github.com/RamRamez/test-editors/richdoc/doctree"
	"github.com/RamRamez/test-editors/richdoc/richlog"
)

// maxQueuedUpdates bounds the updates run after one notification round, so
// listeners that keep editing cannot loop forever.
const maxQueuedUpdates = 1000

// ErrNothingToUndo is returned by Undo when the undo stack is empty.
var ErrNothingToUndo = errors.New("nothing to undo")

// ErrNothingToRedo is returned by Redo when the stack is empty.
var ErrNothingToRedo = errors.New("nothing to redo")

type commitMode int

const (
	commitEdit commitMode = iota
	commitUndo
	commitRedo
)

type subscription struct {
	id     uint64
	name   string
	fn     Listener
	active bool
}

// Session owns one document: the last committed tree, the subscribers and
// the undo history. Every transaction edits a private copy of the committed
// tree, which replaces it on commit.
// Sessions are independent of each other. A Session is not safe for
// concurrent use.
type Session struct {
	name   string
	reg    *doctree.Registry
	logger *zap.Logger

	committed *doctree.Tree
	revision  uint64

	subs      []*subscription
	nextSubID uint64

	inUpdate  bool
	notifying bool
	pending   []func() error

	history *History
}

// New creates a session holding an empty document.
func New(opts *Options) (*Session, error) {
	o := opts.withDefaults()
	tree, err := doctree.New(o.Registry)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create document")
	}
	return newSession(o, tree), nil
}

// NewWithTree creates a session starting from a copy of tree.
func NewWithTree(tree *doctree.Tree, opts *Options) (*Session, error) {
	o := opts.withDefaults()
	if err := tree.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid document")
	}
	return newSession(o, tree.Copy()), nil
}

func newSession(o Options, tree *doctree.Tree) *Session {
	s := &Session{
		name:      o.Name,
		reg:       o.Registry,
		logger:    richlog.OrDefault(o.Logger, "docedit").With(zap.String("session", o.Name)),
		committed: tree,
		history:   newHistory(o.HistoryLimit),
	}
	return s
}

// Name returns the session name.
func (s *Session) Name() string {
	return s.name
}

// Registry returns the registry of the session.
func (s *Session) Registry() *doctree.Registry {
	return s.reg
}

// Revision counts committed tree-changing transactions.
func (s *Session) Revision() uint64 {
	return s.revision
}

// Tree returns a copy of the committed tree.
func (s *Session) Tree() *doctree.Tree {
	return s.committed.Copy()
}

// Selection returns the committed selection.
func (s *Session) Selection() doctree.Selection {
	return s.committed.Selection()
}

// Export serializes the committed tree.
func (s *Session) Export() (*doccodec.SerializedNode, error) {
	return doccodec.Export(s.reg, s.committed)
}

// JSON returns the committed tree encoded as JSON.
func (s *Session) JSON() ([]byte, error) {
	return doccodec.ExportJSON(s.reg, s.committed)
}

// History returns the undo history.
func (s *Session) History() *History {
	return s.history
}

// CanUndo reports whether Undo would change the document.
func (s *Session) CanUndo() bool {
	return s.history.CanUndo()
}

// CanRedo reports whether Redo would change the document.
func (s *Session) CanRedo() bool {
	return s.history.CanRedo()
}

// Subscribe registers a listener under name. Listeners run synchronously in
// subscription order after every committed, tree-changing transaction.
func (s *Session) Subscribe(name string, fn Listener) Unsubscribe {
	s.nextSubID++
	sub := &subscription{id: s.nextSubID, name: name, fn: fn, active: true}
	s.subs = append(s.subs, sub)
	return func() {
		if !sub.active {
			return
		}
		sub.active = false
		for i, other := range s.subs {
			if other.id == sub.id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				break
			}
		}
	}
}

// Update runs fn as one transaction against a copy of the committed tree.
// If fn fails or panics, or leaves the tree invalid, the copy is dropped and
// nothing is committed. Otherwise the tree is committed and, if
// its content changed, every listener is notified once.
// Calling Update from inside fn fails with ErrNestedTransaction. Calling it
// from a listener queues fn to run after the current notification round;
// failures of queued updates are logged.
func (s *Session) Update(fn func(tx *Tx) error) error {
	return s.schedule(func() error { return s.commit(fn, commitEdit) })
}

// Dispatch applies a command as one transaction.
func (s *Session) Dispatch(cmd Command) error {
	s.logger.Debug("dispatch", zap.String("command", cmd.Name()))
	return s.Update(cmd.Apply)
}

// Undo restores the state before the last committed change.
func (s *Session) Undo() error {
	return s.schedule(func() error {
		if !s.history.CanUndo() {
			return ErrNothingToUndo
		}
		target := s.history.popUndo()
		return s.commit(func(tx *Tx) error {
			tx.restore(target)
			return nil
		}, commitUndo)
	})
}

// Redo reapplies the last undone change.
func (s *Session) Redo() error {
	return s.schedule(func() error {
		if !s.history.CanRedo() {
			return ErrNothingToRedo
		}
		target := s.history.popRedo()
		return s.commit(func(tx *Tx) error {
			tx.restore(target)
			return nil
		}, commitRedo)
	})
}

func (s *Session) schedule(run func() error) error {
	switch {
	case s.inUpdate:
		return common.ErrNestedTransaction{}
	case s.notifying:
		s.pending = append(s.pending, run)
		return nil
	}
	err := run()
	s.drain()
	return err
}

func (s *Session) drain() {
	for n := 0; len(s.pending) > 0; n++ {
		if n >= maxQueuedUpdates {
			s.logger.Error("dropping queued updates", zap.Int("count", len(s.pending)))
			s.pending = nil
			return
		}
		run := s.pending[0]
		s.pending = s.pending[1:]
		if err := run(); err != nil {
			s.logger.Error("queued update failed", zap.Error(err))
		}
	}
}

func (s *Session) commit(fn func(tx *Tx) error, mode commitMode) error {
	tx := &Tx{s: s, tree: s.committed.Copy()}
	s.inUpdate = true
	defer func() {
		tx.closed = true
		s.inUpdate = false
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.tree.Validate(); err != nil {
		return errors.Wrap(err, "transaction left the document invalid")
	}

	prev := s.committed
	changed := !doctree.Equal(prev, tx.tree)
	s.committed = tx.tree.Copy()

	switch mode {
	case commitEdit:
		if changed {
			s.history.record(prev)
		}
	case commitUndo:
		s.history.pushRedo(prev)
	case commitRedo:
		s.history.pushUndo(prev)
	}
	if !changed {
		return nil
	}

	s.revision++
	tx.closed = true
	s.inUpdate = false
	// listeners get trees of their own, edits to them never reach the session
	s.notify(&ChangeEvent{
		Session:  s.name,
		Revision: s.revision,
		Tree:     tx.tree,
		Previous: prev.Copy(),
		reg:      s.reg,
	})
	return nil
}

func (s *Session) notify(ev *ChangeEvent) {
	s.notifying = true
	defer func() { s.notifying = false }()

	subs := make([]*subscription, len(s.subs))
	copy(subs, s.subs)
	for _, sub := range subs {
		if sub.active {
			s.call(sub, ev)
		}
	}
}

func (s *Session) call(sub *subscription, ev *ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("listener panicked",
				zap.String("listener", sub.name),
				zap.Uint64("revision", ev.Revision),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	if err := sub.fn(ev); err != nil {
		s.logger.Error("listener failed",
			zap.String("listener", sub.name),
			zap.Uint64("revision", ev.Revision),
			zap.Error(err),
		)
	}
}
