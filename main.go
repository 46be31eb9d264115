package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/RamRamez/test-editors/richdoc/common"
	"github.com/RamRamez/test-editors/richdoc/doccodec"
	"github.com/RamRamez/test-editors/richdoc/docedit"
	"github.com/RamRamez/test-editors/richdoc/docstorage"
	"github.com/RamRamez/test-editors/richdoc/doctree"
	"github.com/RamRamez/test-editors/richdoc/richlog"
)

// A toolbar action: where the selection goes, then the command payload an
// editor surface would send.
type action struct {
	label     string
	selection func(s *docedit.Session) error
	payload   string
}

const pixel = "data:image/gif;base64,R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7"

// editor is one demo surface: its node set, its seed paragraphs and the
// payloads its heading buttons send.
type editor struct {
	name     string
	reg      *doctree.Registry
	seed     []string
	headings [2]string
}

var editors = []editor{
	{
		name: "lexical",
		reg:  doctree.DefaultRegistry(),
		seed: []string{"Rich text editing", "Formatting and blocks", "First item", "Second item"},
		headings: [2]string{
			`{"command":"setBlockType","type":"heading","fields":{"tag":"h1"}}`,
			`{"command":"setBlockType","type":"heading","fields":{"tag":"h2"}}`,
		},
	},
	{
		name: "blocks",
		reg:  doctree.NewBlockRegistry(),
		seed: []string{"Block editor", "Every block is a node", "Alpha", "Beta"},
		headings: [2]string{
			`{"command":"setBlockType","type":"header","fields":{"level":1}}`,
			// a header without a level takes the default level
			`{"command":"setBlockType","type":"header"}`,
		},
	},
}

func (e editor) toolbar() []action {
	return []action{
		{"bold", selectFirstWord, `{"command":"formatText","mark":"bold"}`},
		{"italic", selectFirstWord, `{"command":"formatText","mark":"italic"}`},
		{"heading 1", caretInBlock(0), e.headings[0]},
		{"heading 2", caretInBlock(1), e.headings[1]},
		{"bullet list", selectBlocks(2, 3), `{"command":"insertList","ordered":false}`},
		{"numbered list", selectBlocks(2, 3), `{"command":"insertList","ordered":true}`},
		{"remove list", selectBlocks(2, 3), `{"command":"removeList"}`},
		{"image", caretAtEnd, `{"command":"insertImage","src":"` + pixel + `","alt":"pixel","width":1,"height":1}`},
	}
}

func main() {
	persistence := flag.String("persistence", envOr("RICHDOC_PERSISTENCE", docstorage.PersistenceMemory), "memory, file, redis, badger or mongo")
	path := flag.String("path", "documents", "directory for the file and badger adapters")
	redisAddr := flag.String("redis", envOr("REDIS_ADDR", "localhost:6379"), "Redis address")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	richlog.SetLogger(false, *logLevel)
	defer richlog.Sync()
	logger := richlog.Named("demo")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger, &docstorage.Options{
		PersistenceType: *persistence,
		PersistencePath: *path,
		RedisAddr:       *redisAddr,
		MongoURI:        os.Getenv("MONGO_URI"),
	}); err != nil {
		logger.Error("demo failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *zap.Logger, opts *docstorage.Options) error {
	adapter, err := docstorage.NewAdapter(ctx, opts)
	if err != nil {
		return err
	}
	store := docstorage.NewStore(adapter, doctree.DefaultRegistry(), richlog.Named("docstorage"))
	defer store.Close()

	for _, e := range editors {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := runEditor(ctx, logger, store, e); err != nil {
			return errors.Wrapf(err, "editor %s", e.name)
		}
	}

	ids, err := store.List(ctx)
	if err != nil {
		return err
	}
	logger.Info("stored documents", zap.Strings("ids", ids))
	return nil
}

func runEditor(ctx context.Context, logger *zap.Logger, store *docstorage.Store, e editor) error {
	name := e.name
	s, err := store.OpenSession(ctx, name, &docedit.Options{
		Name:     name,
		Registry: e.reg,
		Logger:   richlog.Named("docedit"),
	})
	if err != nil {
		return err
	}
	s.Subscribe("log", docedit.LogListener(richlog.Named("docedit")))
	s.Subscribe("autosave", store.AutoSaver(name, 2*time.Second))

	if s.Tree().Root().ChildCount() == 0 {
		if err := seed(s, e.seed); err != nil {
			return err
		}
	}

	for _, a := range e.toolbar() {
		if err := a.selection(s); err != nil {
			logger.Warn("skipping action", zap.String("editor", name), zap.String("action", a.label), zap.Error(err))
			continue
		}
		cmd, err := docedit.DecodeCommand(s.Registry(), []byte(a.payload))
		if err != nil {
			return errors.Wrap(err, a.label)
		}
		if err := s.Dispatch(cmd); err != nil {
			logger.Warn("action failed", zap.String("editor", name), zap.String("action", a.label), zap.Error(err))
		}
	}

	sn, err := s.Export()
	if err != nil {
		return err
	}
	out, err := doccodec.MarshalIndent(sn)
	if err != nil {
		return err
	}
	fmt.Printf("--- %s (revision %d) ---\n%s\n", name, s.Revision(), out)
	return nil
}

func seed(s *docedit.Session, lines []string) error {
	return s.Update(func(tx *docedit.Tx) error {
		root := tx.Tree().RootKey()
		for i, line := range lines {
			p, err := tx.Create(doctree.TypeParagraph, nil)
			if err != nil {
				return err
			}
			txt, err := tx.Create(doctree.TypeText, common.Fields{"text": line})
			if err != nil {
				return err
			}
			if err := tx.InsertFragment(root, i, doctree.NewFragment(p, doctree.NewFragment(txt))); err != nil {
				return err
			}
		}
		return nil
	})
}

// texts returns the text leaves in document order.
func texts(tree *doctree.Tree) []*doctree.Node {
	var res []*doctree.Node
	tree.Walk(func(n *doctree.Node, _ int) bool {
		if n.Type() == doctree.TypeText {
			res = append(res, n)
		}
		return true
	})
	return res
}

// textInBlock returns the first text leaf of the i-th top-level block.
func textInBlock(tree *doctree.Tree, i int) (*doctree.Node, error) {
	blocks := tree.Root().Children()
	if i >= len(blocks) {
		return nil, errors.Errorf("no block %d", i)
	}
	var found *doctree.Node
	if err := tree.WalkFrom(blocks[i], func(n *doctree.Node, _ int) bool {
		if found == nil && n.Type() == doctree.TypeText {
			found = n
		}
		return found == nil
	}); err != nil {
		return nil, err
	}
	if found == nil {
		return nil, errors.Errorf("block %d holds no text", i)
	}
	return found, nil
}

func selectFirstWord(s *docedit.Session) error {
	all := texts(s.Tree())
	if len(all) == 0 {
		return errors.New("document holds no text")
	}
	first := all[0]
	end := len([]rune(first.Fields().String("text")))
	for i, r := range []rune(first.Fields().String("text")) {
		if r == ' ' {
			end = i
			break
		}
	}
	return s.Update(func(tx *docedit.Tx) error {
		return tx.SetSelection(doctree.Range(
			doctree.Point{Key: first.Key(), Offset: 0},
			doctree.Point{Key: first.Key(), Offset: end},
		))
	})
}

func caretInBlock(i int) func(s *docedit.Session) error {
	return func(s *docedit.Session) error {
		n, err := textInBlock(s.Tree(), i)
		if err != nil {
			return err
		}
		return s.Update(func(tx *docedit.Tx) error {
			return tx.CollapseTo(n.Key(), 0)
		})
	}
}

func selectBlocks(from, to int) func(s *docedit.Session) error {
	return func(s *docedit.Session) error {
		tree := s.Tree()
		a, err := textInBlock(tree, from)
		if err != nil {
			return err
		}
		b, err := textInBlock(tree, to)
		if err != nil {
			// lists hold their items in one top-level block
			all := texts(tree)
			b = all[len(all)-1]
		}
		end, err := tree.MaxOffset(b.Key())
		if err != nil {
			return err
		}
		return s.Update(func(tx *docedit.Tx) error {
			return tx.SetSelection(doctree.Range(
				doctree.Point{Key: a.Key(), Offset: 0},
				doctree.Point{Key: b.Key(), Offset: end},
			))
		})
	}
}

func caretAtEnd(s *docedit.Session) error {
	tree := s.Tree()
	all := texts(tree)
	if len(all) == 0 {
		return errors.New("document holds no text")
	}
	last := all[len(all)-1]
	end, err := tree.MaxOffset(last.Key())
	if err != nil {
		return err
	}
	return s.Update(func(tx *docedit.Tx) error {
		return tx.CollapseTo(last.Key(), end)
	})
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
