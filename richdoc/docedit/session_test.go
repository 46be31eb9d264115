package docedit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/RamRamez/test-editors/richdoc/common"
	"github.com/RamRamez/test-editors/richdoc/doctree"
)

func newTestSession(t *testing.T) (*Session, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	reg := doctree.NewRegistry()
	doctree.RegisterBuiltins(reg)
	s, err := New(&Options{Name: "test", Registry: reg, Logger: zap.New(core)})
	require.NoError(t, err)
	return s, logs
}

// addParagraph appends a paragraph holding text and returns the text key.
func addParagraph(t *testing.T, s *Session, text string) (para, txt common.Key) {
	t.Helper()
	require.NoError(t, s.Update(func(tx *Tx) error {
		p, err := tx.Create(doctree.TypeParagraph, nil)
		if err != nil {
			return err
		}
		n, err := tx.Create(doctree.TypeText, common.Fields{"text": text})
		if err != nil {
			return err
		}
		root := tx.Tree().Root()
		para, txt = p.Key(), n.Key()
		return tx.InsertFragment(root.Key(), root.ChildCount(), doctree.NewFragment(p, doctree.NewFragment(n)))
	}))
	return para, txt
}

func TestUpdateNotifiesOncePerCommit(t *testing.T) {
	s, _ := newTestSession(t)

	var events []*ChangeEvent
	s.Subscribe("collect", func(ev *ChangeEvent) error {
		events = append(events, ev)
		return nil
	})

	require.NoError(t, s.Update(func(tx *Tx) error {
		for i := 0; i < 3; i++ {
			p, err := tx.Create(doctree.TypeParagraph, nil)
			if err != nil {
				return err
			}
			if err := tx.Insert(tx.Tree().RootKey(), i, p); err != nil {
				return err
			}
		}
		return nil
	}))

	require.Len(t, events, 1)
	assert.Equal(t, uint64(1), events[0].Revision)
	assert.Equal(t, "test", events[0].Session)
	assert.Equal(t, 4, events[0].Tree.Len())
	assert.Equal(t, 1, events[0].Previous.Len())
	assert.Equal(t, uint64(1), s.Revision())
}

func TestUpdateWithoutChangeDoesNotNotify(t *testing.T) {
	s, _ := newTestSession(t)
	_, txt := addParagraph(t, s, "hello")

	calls := 0
	s.Subscribe("count", func(*ChangeEvent) error {
		calls++
		return nil
	})

	require.NoError(t, s.Update(func(*Tx) error { return nil }))
	require.NoError(t, s.Update(func(tx *Tx) error {
		return tx.SetFields(txt, common.Fields{"text": "hello"})
	}))
	// selection moves are committed but are not document changes
	require.NoError(t, s.Update(func(tx *Tx) error {
		return tx.CollapseTo(txt, 2)
	}))

	assert.Equal(t, 0, calls)
	assert.Equal(t, doctree.Caret(doctree.Point{Key: txt, Offset: 2}), s.Selection())
}

func TestFailedUpdateRollsBack(t *testing.T) {
	s, _ := newTestSession(t)
	_, txt := addParagraph(t, s, "hello")
	before, err := s.JSON()
	require.NoError(t, err)

	calls := 0
	s.Subscribe("count", func(*ChangeEvent) error {
		calls++
		return nil
	})

	err = s.Update(func(tx *Tx) error {
		if err := tx.SetFields(txt, common.Fields{"text": "changed"}); err != nil {
			return err
		}
		return tx.Remove(common.NextKey())
	})
	assert.True(t, errors.Is(err, common.ErrNodeNotFound{}))

	after, err := s.JSON()
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.Equal(t, 0, calls)

	// the next transaction starts from the committed tree
	require.NoError(t, s.Update(func(tx *Tx) error {
		n, err := tx.Tree().Node(txt)
		require.NoError(t, err)
		assert.Equal(t, "hello", n.Fields().String("text"))
		return nil
	}))
}

func TestPanickingUpdateRollsBack(t *testing.T) {
	s, _ := newTestSession(t)
	_, txt := addParagraph(t, s, "hello")

	assert.Panics(t, func() {
		_ = s.Update(func(tx *Tx) error {
			_ = tx.Remove(txt)
			panic("boom")
		})
	})

	assert.True(t, s.Tree().Has(txt))
	require.NoError(t, s.Update(func(tx *Tx) error {
		assert.True(t, tx.Tree().Has(txt))
		return nil
	}))
}

func TestNestedUpdateIsRejected(t *testing.T) {
	s, _ := newTestSession(t)

	var nested error
	require.NoError(t, s.Update(func(tx *Tx) error {
		nested = s.Update(func(*Tx) error { return nil })
		return nil
	}))
	assert.True(t, errors.Is(nested, common.ErrNestedTransaction{}))
}

func TestTxClosedAfterUpdate(t *testing.T) {
	s, _ := newTestSession(t)

	var leaked *Tx
	require.NoError(t, s.Update(func(tx *Tx) error {
		leaked = tx
		return nil
	}))

	p, err := s.Registry().Create(doctree.TypeParagraph, nil)
	require.NoError(t, err)
	err = leaked.Insert(s.Tree().RootKey(), 0, p)
	assert.True(t, errors.Is(err, common.ErrTransactionClosed{}))
	assert.Nil(t, leaked.Tree())
}

func TestTreeKeptPastUpdateIsDetached(t *testing.T) {
	s, _ := newTestSession(t)
	_, txt := addParagraph(t, s, "hello")

	var kept *doctree.Tree
	require.NoError(t, s.Update(func(tx *Tx) error {
		kept = tx.Tree()
		return tx.CollapseTo(txt, 1)
	}))
	require.NoError(t, kept.Remove(txt))

	calls := 0
	s.Subscribe("count", func(*ChangeEvent) error {
		calls++
		return nil
	})
	require.NoError(t, s.Update(func(tx *Tx) error {
		assert.True(t, tx.Tree().Has(txt))
		return nil
	}))
	assert.True(t, s.Tree().Has(txt))
	assert.Equal(t, 0, calls)
}

func TestListenerEditsDoNotReachSession(t *testing.T) {
	s, _ := newTestSession(t)
	s.Subscribe("vandal", func(ev *ChangeEvent) error {
		for _, k := range ev.Tree.Root().Children() {
			if err := ev.Tree.Remove(k); err != nil {
				return err
			}
		}
		for _, k := range ev.Previous.Root().Children() {
			if err := ev.Previous.Remove(k); err != nil {
				return err
			}
		}
		return nil
	})

	_, a := addParagraph(t, s, "a")
	_, b := addParagraph(t, s, "b")
	assert.True(t, s.Tree().Has(a))
	assert.True(t, s.Tree().Has(b))

	require.NoError(t, s.Undo())
	assert.True(t, s.Tree().Has(a))
	assert.False(t, s.Tree().Has(b))
}

func TestUpdateFromListenerIsQueued(t *testing.T) {
	s, _ := newTestSession(t)

	var order []string
	s.Subscribe("follow-up", func(ev *ChangeEvent) error {
		order = append(order, "listener")
		if ev.Revision == 1 {
			err := s.Update(func(tx *Tx) error {
				order = append(order, "queued")
				p, err := tx.Create(doctree.TypeQuote, nil)
				if err != nil {
					return err
				}
				return tx.Insert(tx.Tree().RootKey(), 0, p)
			})
			order = append(order, "returned")
			return err
		}
		return nil
	})
	s.Subscribe("second", func(*ChangeEvent) error {
		order = append(order, "second")
		return nil
	})

	addParagraph(t, s, "hello")

	assert.Equal(t, []string{"listener", "returned", "second", "queued", "listener", "second"}, order)
	assert.Equal(t, uint64(2), s.Revision())
	assert.Equal(t, 4, s.Tree().Len())
}

func TestQueuedUpdateFailureIsLogged(t *testing.T) {
	s, logs := newTestSession(t)
	s.Subscribe("bad-follow-up", func(ev *ChangeEvent) error {
		return s.Update(func(tx *Tx) error {
			return tx.Remove(common.NextKey())
		})
	})

	addParagraph(t, s, "hello")
	assert.Equal(t, 1, logs.FilterMessage("queued update failed").Len())
}

func TestListenerFailuresAreIsolated(t *testing.T) {
	s, logs := newTestSession(t)

	calls := 0
	s.Subscribe("failing", func(*ChangeEvent) error {
		return errors.New("disk full")
	})
	s.Subscribe("panicking", func(*ChangeEvent) error {
		panic("bad listener")
	})
	s.Subscribe("healthy", func(*ChangeEvent) error {
		calls++
		return nil
	})

	_, txt := addParagraph(t, s, "hello")
	assert.Equal(t, 1, calls)
	assert.True(t, s.Tree().Has(txt))

	failed := logs.FilterMessage("listener failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "failing", failed[0].ContextMap()["listener"])
	assert.Equal(t, "disk full", failed[0].ContextMap()["error"])

	panicked := logs.FilterMessage("listener panicked").All()
	require.Len(t, panicked, 1)
	assert.Equal(t, "panicking", panicked[0].ContextMap()["listener"])
	assert.Equal(t, zapcore.ErrorLevel, panicked[0].Level)
}

func TestUnsubscribe(t *testing.T) {
	s, _ := newTestSession(t)

	calls := 0
	unsubscribe := s.Subscribe("count", func(*ChangeEvent) error {
		calls++
		return nil
	})
	addParagraph(t, s, "a")
	unsubscribe()
	unsubscribe()
	addParagraph(t, s, "b")
	assert.Equal(t, 1, calls)
}

func TestChangeEventSerializesLazily(t *testing.T) {
	s, _ := newTestSession(t)
	_, txt := addParagraph(t, s, "hello")

	var ev *ChangeEvent
	s.Subscribe("keep", func(e *ChangeEvent) error {
		ev = e
		return nil
	})
	require.NoError(t, s.Update(func(tx *Tx) error {
		return tx.SetFields(txt, common.Fields{"text": "world"})
	}))
	require.NotNil(t, ev)
	assert.False(t, ev.snapshotted)

	data, err := ev.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"text":"world"`)
	again, err := ev.JSON()
	require.NoError(t, err)
	assert.Equal(t, data, again)

	sn, err := ev.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "root", sn.Type)

	patch, err := ev.Patch()
	require.NoError(t, err)
	assert.Contains(t, string(patch), "world")
}

func TestUndoRedo(t *testing.T) {
	s, _ := newTestSession(t)
	assert.False(t, s.CanUndo())
	assert.True(t, errors.Is(s.Undo(), ErrNothingToUndo))

	_, txt := addParagraph(t, s, "one")
	require.NoError(t, s.Update(func(tx *Tx) error {
		return tx.SetFields(txt, common.Fields{"text": "two"})
	}))

	notified := 0
	s.Subscribe("count", func(*ChangeEvent) error {
		notified++
		return nil
	})

	require.NoError(t, s.Undo())
	n, err := s.Tree().Node(txt)
	require.NoError(t, err)
	assert.Equal(t, "one", n.Fields().String("text"))
	assert.True(t, s.CanRedo())

	require.NoError(t, s.Redo())
	n, err = s.Tree().Node(txt)
	require.NoError(t, err)
	assert.Equal(t, "two", n.Fields().String("text"))
	assert.Equal(t, 2, notified)

	require.NoError(t, s.Undo())
	require.NoError(t, s.Undo())
	assert.False(t, s.Tree().Has(txt))
	assert.False(t, s.CanUndo())

	// a new edit drops the redo stack
	addParagraph(t, s, "three")
	assert.False(t, s.CanRedo())
	assert.True(t, errors.Is(s.Redo(), ErrNothingToRedo))
}

func TestUndoRetiresKeys(t *testing.T) {
	s, _ := newTestSession(t)
	p, err := s.Registry().Create(doctree.TypeParagraph, nil)
	require.NoError(t, err)
	insert := func(tx *Tx) error {
		return tx.Insert(tx.Tree().RootKey(), 0, p)
	}

	require.NoError(t, s.Update(insert))
	require.NoError(t, s.Undo())
	assert.False(t, s.Tree().Has(p.Key()))

	err = s.Update(insert)
	assert.True(t, errors.Is(err, common.ErrDuplicateKey{}))
	assert.False(t, s.Tree().Has(p.Key()))

	// redo brings the node back under its own key
	require.NoError(t, s.Redo())
	assert.True(t, s.Tree().Has(p.Key()))
	require.NoError(t, s.Undo())
	err = s.Update(insert)
	assert.True(t, errors.Is(err, common.ErrDuplicateKey{}))
}

func TestHistoryLimit(t *testing.T) {
	reg := doctree.NewRegistry()
	doctree.RegisterBuiltins(reg)
	s, err := New(&Options{Registry: reg, HistoryLimit: 2, Logger: zap.NewNop()})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		addParagraph(t, s, "p")
	}
	undo, redo := s.History().Len()
	assert.Equal(t, 2, undo)
	assert.Equal(t, 0, redo)

	off, err := New(&Options{Registry: reg, HistoryLimit: -1, Logger: zap.NewNop()})
	require.NoError(t, err)
	addParagraph(t, off, "p")
	assert.False(t, off.CanUndo())
}

func TestSessionsAreIndependent(t *testing.T) {
	a, _ := newTestSession(t)
	b, _ := newTestSession(t)

	calls := 0
	b.Subscribe("count", func(*ChangeEvent) error {
		calls++
		return nil
	})
	addParagraph(t, a, "only in a")

	assert.Equal(t, 0, calls)
	assert.Equal(t, 3, a.Tree().Len())
	assert.Equal(t, 1, b.Tree().Len())
}

func TestNewWithTree(t *testing.T) {
	a, _ := newTestSession(t)
	_, txt := addParagraph(t, a, "hello")

	b, err := NewWithTree(a.Tree(), &Options{Registry: a.Registry(), Logger: zap.NewNop()})
	require.NoError(t, err)
	assert.True(t, b.Tree().Has(txt))
	assert.Equal(t, "document", b.Name())
	assert.Equal(t, uint64(0), b.Revision())
}
