package doctree

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/RamRamez/test-editors/richdoc/common"
)

// ConstructFunc validates and completes the payload of a new node.
// It receives normalized fields it may modify and returns the fields to store.
type ConstructFunc func(fields common.Fields) (common.Fields, error)

// ExportFunc produces the serialized fields of a node.
type ExportFunc func(n *Node) common.Fields

// ImportFunc interprets serialized fields written by the given version of
// the class and returns fields in the current layout.
type ImportFunc func(version int, fields common.Fields) (common.Fields, error)

// NodeClass describes one registered node type.
type NodeClass struct {
	// Type is the tag stored on nodes and in serialized form.
	Type string

	// Kind is KindElement for structural nodes and KindLeaf otherwise.
	Kind common.Kind

	// Version is stamped on exported nodes. Zero registers as 1.
	Version int

	// Inline nodes live inside blocks: text, links, images.
	Inline bool

	// TextField names the string field that holds text for text-like leaves.
	// Offsets into text-like leaves count runes of that field.
	TextField string

	// Construct defaults to accepting the fields unchanged.
	Construct ConstructFunc

	// Export defaults to a copy of the node fields.
	Export ExportFunc

	// Import defaults to Construct.
	Import ImportFunc
}

// Registry maps type tags to node classes.
// Registration is expected during setup. Lookups are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]NodeClass
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]NodeClass)}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process registry holding the built-in kinds.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		RegisterBuiltins(defaultRegistry)
	})
	return defaultRegistry
}

// Register associates class.Type with class. Registering an existing type
// overwrites the previous class.
func (r *Registry) Register(class NodeClass) error {
	if class.Type == "" {
		return common.ErrInvalidFields{Message: "empty node type"}
	}
	if class.Kind != common.KindElement && class.Kind != common.KindLeaf {
		return common.ErrInvalidFields{Type: class.Type, Message: "node kind must be element or leaf"}
	}
	if class.Version <= 0 {
		class.Version = 1
	}
	if class.TextField != "" && class.Kind != common.KindLeaf {
		return common.ErrInvalidFields{Type: class.Type, Message: "only leaves can hold text"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[class.Type] = class
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(class NodeClass) {
	if err := r.Register(class); err != nil {
		panic(err)
	}
}

// Class returns the class registered for typ.
func (r *Registry) Class(typ string) (NodeClass, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[typ]
	return c, ok
}

// Types returns the registered type tags in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]string, 0, len(r.classes))
	for t := range r.classes {
		res = append(res, t)
	}
	sort.Strings(res)
	return res
}

func (r *Registry) lookup(typ string) (NodeClass, error) {
	c, ok := r.Class(typ)
	if !ok {
		return NodeClass{}, common.ErrUnknownNodeType{Type: typ}
	}
	return c, nil
}

// Create builds a new detached node of type typ with a fresh key.
func (r *Registry) Create(typ string, fields common.Fields) (*Node, error) {
	class, err := r.lookup(typ)
	if err != nil {
		return nil, err
	}
	f, err := prepareFields(class, fields)
	if err != nil {
		return nil, err
	}
	if class.Construct != nil {
		if f, err = class.Construct(f); err != nil {
			return nil, wrapFieldsError(class.Type, err)
		}
	}
	return r.newNode(class, f)
}

// MustCreate is Create that panics on error.
func (r *Registry) MustCreate(typ string, fields common.Fields) *Node {
	n, err := r.Create(typ, fields)
	if err != nil {
		panic(err)
	}
	return n
}

// Reconstruct builds a node from fields serialized by the given class version.
func (r *Registry) Reconstruct(typ string, version int, fields common.Fields) (*Node, error) {
	class, err := r.lookup(typ)
	if err != nil {
		return nil, err
	}
	f, err := prepareFields(class, fields)
	if err != nil {
		return nil, err
	}
	switch {
	case class.Import != nil:
		f, err = class.Import(version, f)
	case class.Construct != nil:
		f, err = class.Construct(f)
	}
	if err != nil {
		return nil, wrapFieldsError(class.Type, err)
	}
	return r.newNode(class, f)
}

// Export returns the serialized fields and version of n.
func (r *Registry) Export(n *Node) (common.Fields, int, error) {
	class, err := r.lookup(n.typ)
	if err != nil {
		return nil, 0, err
	}
	if class.Export == nil {
		return n.Fields(), class.Version, nil
	}
	f, err := common.NormalizeFields(class.Export(n))
	if err != nil {
		return nil, 0, wrapFieldsError(class.Type, err)
	}
	return f, class.Version, nil
}

// construct re-validates an updated payload for an existing type.
func (r *Registry) construct(typ string, fields common.Fields) (common.Fields, error) {
	class, err := r.lookup(typ)
	if err != nil {
		return nil, err
	}
	f, err := prepareFields(class, fields)
	if err != nil {
		return nil, err
	}
	if class.Construct != nil {
		if f, err = class.Construct(f); err != nil {
			return nil, wrapFieldsError(class.Type, err)
		}
	}
	return common.NormalizeFields(f)
}

func (r *Registry) newNode(class NodeClass, f common.Fields) (*Node, error) {
	f, err := common.NormalizeFields(f)
	if err != nil {
		return nil, wrapFieldsError(class.Type, err)
	}
	return &Node{
		key:    common.NextKey(),
		typ:    class.Type,
		kind:   class.Kind,
		fields: f,
	}, nil
}

func prepareFields(class NodeClass, fields common.Fields) (common.Fields, error) {
	for name := range fields {
		if common.IsReservedField(name) {
			return nil, common.ErrInvalidFields{Type: class.Type, Message: "reserved field name " + name}
		}
	}
	f, err := common.NormalizeFields(fields)
	if err != nil {
		return nil, wrapFieldsError(class.Type, err)
	}
	return f, nil
}

func wrapFieldsError(typ string, err error) error {
	if errors.Is(err, common.ErrInvalidFields{}) || errors.Is(err, common.ErrUnknownNodeType{}) {
		return err
	}
	return common.ErrInvalidFields{Type: typ, Message: err.Error()}
}

// textField returns the text field of n, or "" when n is not a text-like leaf.
func (r *Registry) textField(n *Node) string {
	if n.kind != common.KindLeaf {
		return ""
	}
	c, ok := r.Class(n.typ)
	if !ok {
		return ""
	}
	return c.TextField
}

func (r *Registry) isInline(typ string) bool {
	c, ok := r.Class(typ)
	return ok && c.Inline
}
