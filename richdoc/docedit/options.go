package docedit

import (
	"go.uber.org/zap"

	"github.com/RamRamez/test-editors/richdoc/doctree"
)

// DefaultHistoryLimit bounds the undo stack when Options.HistoryLimit is 0.
const DefaultHistoryLimit = 100

// Options configures a Session.
type Options struct {
	// Name identifies the session in logs and change events.
	Name string

	// Registry resolves node types. Defaults to doctree.DefaultRegistry().
	Registry *doctree.Registry

	// Logger defaults to the process logger named "docedit".
	Logger *zap.Logger

	// HistoryLimit is the number of undo steps kept. A negative value
	// disables history.
	HistoryLimit int
}

// DefaultOptions returns the options used for fields left empty.
func DefaultOptions() *Options {
	return &Options{
		Name:         "document",
		HistoryLimit: DefaultHistoryLimit,
	}
}

func (o *Options) withDefaults() Options {
	res := *DefaultOptions()
	if o == nil {
		o = &Options{}
	}
	if o.Name != "" {
		res.Name = o.Name
	}
	if o.HistoryLimit != 0 {
		res.HistoryLimit = o.HistoryLimit
	}
	res.Registry = o.Registry
	if res.Registry == nil {
		res.Registry = doctree.DefaultRegistry()
	}
	res.Logger = o.Logger
	return res
}
