// Package filetree models an in-memory project tree and the deterministic
// placement of generated artifacts onto a scaffold.
package filetree

import (
	"fmt"
	"sort"
	"strings"
)

// Kind discriminates the two node variants.
type Kind int

const (
	KindFile Kind = iota
	KindDir
)

// Node is a file-tree node: either a file with content or a directory with
// named children. A tree is owned by exactly one repair session at a time;
// the type itself is not synchronized.
type Node struct {
	Kind     Kind
	Content  string
	Children map[string]*Node
}

// NewDir returns an empty directory node.
func NewDir() *Node {
	return &Node{Kind: KindDir, Children: make(map[string]*Node)}
}

// NewFile returns a file node with the given content.
func NewFile(content string) *Node {
	return &Node{Kind: KindFile, Content: content}
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool { return n.Kind == KindDir }

// Clone returns a deep copy of the tree rooted at n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	if n.Kind == KindFile {
		return NewFile(n.Content)
	}
	out := NewDir()
	for name, child := range n.Children {
		out.Children[name] = child.Clone()
	}
	return out
}

// splitPath normalizes a slash-separated path into its segments. Leading and
// trailing slashes are ignored.
func splitPath(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// Lookup resolves a slash-separated path from n. The empty path resolves to n
// itself.
func (n *Node) Lookup(path string) (*Node, bool) {
	cur := n
	for _, seg := range splitPath(path) {
		if cur == nil || cur.Kind != KindDir {
			return nil, false
		}
		next, ok := cur.Children[seg]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, cur != nil
}

// Insert places node at path, creating intermediate directories. It fails if
// the path is already occupied or a file blocks an intermediate segment.
func (n *Node) Insert(path string, node *Node) error {
	segs := splitPath(path)
	if len(segs) == 0 {
		return fmt.Errorf("cannot insert at empty path")
	}
	cur := n
	for _, seg := range segs[:len(segs)-1] {
		child, ok := cur.Children[seg]
		if !ok {
			child = NewDir()
			cur.Children[seg] = child
		} else if child.Kind != KindDir {
			return fmt.Errorf("path segment %q is a file, not a directory", seg)
		}
		cur = child
	}
	leaf := segs[len(segs)-1]
	if _, exists := cur.Children[leaf]; exists {
		return fmt.Errorf("path already occupied")
	}
	cur.Children[leaf] = node
	return nil
}

// WriteFile sets the complete content of the file at path, creating the file
// and any intermediate directories as needed. An existing file is replaced
// wholesale; an existing directory at the leaf is an error.
func (n *Node) WriteFile(path, content string) error {
	segs := splitPath(path)
	if len(segs) == 0 {
		return fmt.Errorf("cannot write at empty path")
	}
	cur := n
	for _, seg := range segs[:len(segs)-1] {
		child, ok := cur.Children[seg]
		if !ok {
			child = NewDir()
			cur.Children[seg] = child
		} else if child.Kind != KindDir {
			return fmt.Errorf("path segment %q is a file, not a directory", seg)
		}
		cur = child
	}
	leaf := segs[len(segs)-1]
	if existing, ok := cur.Children[leaf]; ok && existing.Kind == KindDir {
		return fmt.Errorf("path %q is a directory", path)
	}
	cur.Children[leaf] = NewFile(content)
	return nil
}

// Walk visits every node beneath n in lexical path order, calling fn with the
// slash-separated path relative to n. Directories are visited before their
// children; the root itself is not visited.
func (n *Node) Walk(fn func(path string, node *Node) error) error {
	return n.walk("", fn)
}

func (n *Node) walk(prefix string, fn func(path string, node *Node) error) error {
	if n.Kind != KindDir {
		return nil
	}
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		child := n.Children[name]
		path := name
		if prefix != "" {
			path = prefix + "/" + name
		}
		if err := fn(path, child); err != nil {
			return err
		}
		if err := child.walk(path, fn); err != nil {
			return err
		}
	}
	return nil
}

// Files returns every file path and content beneath n, in lexical order.
func (n *Node) Files() map[string]string {
	out := make(map[string]string)
	_ = n.Walk(func(path string, node *Node) error {
		if node.Kind == KindFile {
			out[path] = node.Content
		}
		return nil
	})
	return out
}
