package docstorage

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/RamRamez/test-editors/richdoc/doccodec"
	"github.com/RamRamez/test-editors/richdoc/docedit"
	"github.com/RamRamez/test-editors/richdoc/doctree"
	"github.com/RamRamez/test-editors/richdoc/richlog"
)

// Store saves and loads document trees through an adapter, encoding them with
// the serialization codec of a registry.
type Store struct {
	adapter Adapter
	reg     *doctree.Registry
	logger  *zap.Logger
}

// NewStore wraps adapter. A nil registry uses doctree.DefaultRegistry and a
// nil logger the process logger.
func NewStore(adapter Adapter, reg *doctree.Registry, logger *zap.Logger) *Store {
	if reg == nil {
		reg = doctree.DefaultRegistry()
	}
	return &Store{
		adapter: adapter,
		reg:     reg,
		logger:  richlog.OrDefault(logger, "docstorage"),
	}
}

// Adapter returns the underlying adapter.
func (s *Store) Adapter() Adapter {
	return s.adapter
}

// SaveTree serializes tree and stores it under id.
func (s *Store) SaveTree(ctx context.Context, id string, tree *doctree.Tree) error {
	data, err := doccodec.ExportJSON(s.reg, tree)
	if err != nil {
		return errors.Wrapf(err, "failed to export document %s", id)
	}
	return s.save(ctx, id, data)
}

func (s *Store) save(ctx context.Context, id string, data []byte) error {
	if err := s.adapter.Save(ctx, id, data); err != nil {
		return errors.Wrapf(err, "failed to save document %s", id)
	}
	s.logger.Debug("document saved",
		zap.String("id", id),
		zap.String("size", humanize.Bytes(uint64(len(data)))),
	)
	return nil
}

// LoadTree rebuilds the tree stored under id. Keys are fresh and the
// selection is empty.
func (s *Store) LoadTree(ctx context.Context, id string) (*doctree.Tree, error) {
	return s.loadTree(ctx, s.reg, id)
}

func (s *Store) loadTree(ctx context.Context, reg *doctree.Registry, id string) (*doctree.Tree, error) {
	data, err := s.adapter.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	tree, err := doccodec.ImportJSON(reg, data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to import document %s", id)
	}
	return tree, nil
}

// OpenSession starts a session on the document stored under id, or on an
// empty document if there is none. The document is imported with the
// session registry when opts names one.
func (s *Store) OpenSession(ctx context.Context, id string, opts *docedit.Options) (*docedit.Session, error) {
	o := docedit.Options{}
	if opts != nil {
		o = *opts
	}
	if o.Registry == nil {
		o.Registry = s.reg
	}

	tree, err := s.loadTree(ctx, o.Registry, id)
	if errors.Is(err, ErrDocumentNotFound{}) {
		return docedit.New(&o)
	}
	if err != nil {
		return nil, err
	}
	return docedit.NewWithTree(tree, &o)
}

// List returns the stored document ids.
func (s *Store) List(ctx context.Context) ([]string, error) {
	return s.adapter.List(ctx)
}

// Delete removes the document stored under id.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.adapter.Delete(ctx, id)
}

func (s *Store) Close() error {
	return s.adapter.Close()
}
