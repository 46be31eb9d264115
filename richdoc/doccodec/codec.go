package doccodec

import (
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/pkg/errors"

	"github.com/RamRamez/test-editors/richdoc/common"
	"github.com/RamRamez/test-editors/richdoc/doctree"
)

// Export serializes the whole tree. It reads only node content: the
// selection is ignored and the tree is never modified.
func Export(reg *doctree.Registry, tree *doctree.Tree) (*SerializedNode, error) {
	return ExportSubtree(reg, tree, tree.RootKey())
}

// ExportSubtree serializes the subtree at key.
func ExportSubtree(reg *doctree.Registry, tree *doctree.Tree, key common.Key) (*SerializedNode, error) {
	n, err := tree.Node(key)
	if err != nil {
		return nil, err
	}
	fields, version, err := reg.Export(n)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to export %s", n.Key())
	}
	for name := range fields {
		if common.IsReservedField(name) {
			return nil, common.ErrInvalidFields{Type: n.Type(), Message: "exporter produced reserved field " + name}
		}
	}

	sn := &SerializedNode{Type: n.Type(), Version: version, Fields: fields}
	if n.IsStructural() {
		sn.Children = make([]*SerializedNode, 0, n.ChildCount())
		for _, c := range n.Children() {
			child, err := ExportSubtree(reg, tree, c)
			if err != nil {
				return nil, err
			}
			sn.Children = append(sn.Children, child)
		}
	}
	return sn, nil
}

// ExportFragment serializes a detached subtree.
func ExportFragment(reg *doctree.Registry, f *doctree.Fragment) (*SerializedNode, error) {
	fields, version, err := reg.Export(f.Node)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to export %s", f.Node.Key())
	}
	sn := &SerializedNode{Type: f.Node.Type(), Version: version, Fields: fields}
	if f.Node.IsStructural() {
		sn.Children = make([]*SerializedNode, 0, len(f.Children))
		for _, c := range f.Children {
			child, err := ExportFragment(reg, c)
			if err != nil {
				return nil, err
			}
			sn.Children = append(sn.Children, child)
		}
	}
	return sn, nil
}

// Import rebuilds a detached subtree from sn. Every node gets a fresh key.
// Nothing outside the returned fragment is touched, so a failed import leaves
// every live tree as it was.
func Import(reg *doctree.Registry, sn *SerializedNode) (*doctree.Fragment, error) {
	if sn == nil {
		return nil, common.ErrMalformedNode{Message: "nil node"}
	}
	n, err := reg.Reconstruct(sn.Type, sn.Version, sn.Fields)
	if err != nil {
		return nil, err
	}
	if n.IsLeaf() && len(sn.Children) > 0 {
		return nil, common.ErrMalformedNode{Message: "leaf " + sn.Type + " has children"}
	}

	f := doctree.NewFragment(n)
	for i, c := range sn.Children {
		child, err := Import(reg, c)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: child %d", sn.Type, i)
		}
		f.Children = append(f.Children, child)
	}
	return f, nil
}

// ImportTree rebuilds a whole tree whose root is sn.
func ImportTree(reg *doctree.Registry, sn *SerializedNode) (*doctree.Tree, error) {
	f, err := Import(reg, sn)
	if err != nil {
		return nil, err
	}
	return doctree.FromFragment(reg, f)
}

// ExportJSON is Export followed by Marshal.
func ExportJSON(reg *doctree.Registry, tree *doctree.Tree) ([]byte, error) {
	sn, err := Export(reg, tree)
	if err != nil {
		return nil, err
	}
	return Marshal(sn)
}

// ImportJSON is Unmarshal followed by ImportTree.
func ImportJSON(reg *doctree.Registry, data []byte) (*doctree.Tree, error) {
	sn, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return ImportTree(reg, sn)
}

// MergePatch returns the RFC 7396 merge patch turning prev into next.
func MergePatch(prev, next []byte) ([]byte, error) {
	patch, err := jsonpatch.CreateMergePatch(prev, next)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create merge patch")
	}
	return patch, nil
}

// ApplyMergePatch applies an RFC 7396 merge patch to doc.
func ApplyMergePatch(doc, patch []byte) ([]byte, error) {
	res, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return nil, errors.Wrap(err, "failed to apply merge patch")
	}
	return res, nil
}

// EqualJSON reports whether two JSON documents are structurally equal.
func EqualJSON(a, b []byte) bool {
	return jsonpatch.Equal(a, b)
}
