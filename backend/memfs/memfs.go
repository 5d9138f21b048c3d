// Package memfs implements the in-memory backend: a tree of file/directory
// nodes with POSIX-like semantics, per spec.md §4.9.
package memfs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vfscore/vfs/backend"
	"github.com/vfscore/vfs/internal/rmutex"
	"github.com/vfscore/vfs/vfscommon"
	"github.com/vfscore/vfs/vfspath"
)

type kind int

const (
	kindFile kind = iota
	kindDir
)

// node mirrors spec.md §3's memory-backend-node: { name, kind, parent,
// times }, files add {bytes, size, capacity}, directories add a children
// vector. The root node has an empty name and nil parent.
type node struct {
	name     string
	kind     kind
	parent   *node
	children []*node // sorted by name, directories only

	data       []byte // files only
	modTime    time.Time
	accessTime time.Time
	createTime time.Time
}

func (n *node) info() backend.Info {
	return backend.Info{
		Size:       int64(len(n.data)),
		IsDir:      n.kind == kindDir,
		ModTime:    n.modTime,
		AccessTime: n.accessTime,
		CreateTime: n.createTime,
	}
}

// indexOfChild returns the index of a child named name and whether it was
// found, via binary search over the sorted children slice.
func (n *node) indexOfChild(name string) (int, bool) {
	i := sort.Search(len(n.children), func(i int) bool {
		return n.children[i].name >= name
	})
	if i < len(n.children) && n.children[i].name == name {
		return i, true
	}
	return i, false
}

func (n *node) childByName(name string) *node {
	if i, ok := n.indexOfChild(name); ok {
		return n.children[i]
	}
	return nil
}

func (n *node) addChild(c *node) {
	i, _ := n.indexOfChild(c.name)
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = c
	c.parent = n
}

func (n *node) removeChild(name string) {
	i, ok := n.indexOfChild(name)
	if !ok {
		return
	}
	copy(n.children[i:], n.children[i+1:])
	n.children = n.children[:len(n.children)-1]
}

// Backend is the in-memory node-tree backend. Every operation acquires mu,
// the single recursive mutex protecting the tree, per spec.md §5.
type Backend struct {
	mu   *rmutex.RMutex
	root *node
}

// New returns an empty in-memory backend rooted at an empty-named directory.
func New() *Backend {
	now := time.Time{}
	return &Backend{mu: rmutex.New(), root: &node{kind: kindDir, modTime: now, accessTime: now, createTime: now}}
}

func (b *Backend) Close() error { return nil }

// resolve walks path segment by segment from the root. It returns the final
// node (nil if not found), the node's parent (nil only for the root or when
// an intermediate segment is missing/not-a-directory), and the final
// segment name. An above-root path (as reported by vfspath.Clean) is
// rejected.
func (b *Backend) resolve(path string) (n, parent *node, name string, err error) {
	cleaned, escaped := vfspath.Clean(path)
	if escaped {
		return nil, nil, "", vfscommon.ErrDoesNotExist
	}
	segs := vfspath.Segments(cleaned)
	cur := b.root
	var curParent *node
	for i, seg := range segs {
		if cur.kind != kindDir {
			return nil, nil, "", vfscommon.ErrNotDirectory
		}
		child := cur.childByName(seg)
		if child == nil {
			if i == len(segs)-1 {
				return nil, cur, seg, nil
			}
			return nil, nil, "", vfscommon.ErrDoesNotExist
		}
		curParent = cur
		cur = child
	}
	if len(segs) == 0 {
		return b.root, nil, "", nil
	}
	return cur, curParent, segs[len(segs)-1], nil
}

func (b *Backend) Info(ctx context.Context, path string) (backend.Info, error) {
	token := rmutex.NewToken()
	b.mu.Lock(token)
	defer b.mu.Unlock(token)

	n, _, _, err := b.resolve(path)
	if err != nil {
		return backend.Info{}, err
	}
	if n == nil {
		return backend.Info{}, vfscommon.ErrDoesNotExist
	}
	return n.info(), nil
}

func (b *Backend) Mkdir(ctx context.Context, path string) error {
	token := rmutex.NewToken()
	b.mu.Lock(token)
	defer b.mu.Unlock(token)

	n, parent, name, err := b.resolve(path)
	if err != nil {
		return err
	}
	if n != nil {
		return vfscommon.ErrAlreadyExists
	}
	if parent == nil {
		return vfscommon.ErrDoesNotExist
	}
	now := timeNow()
	parent.addChild(&node{name: name, kind: kindDir, modTime: now, accessTime: now, createTime: now})
	return nil
}

func (b *Backend) Remove(ctx context.Context, path string) error {
	token := rmutex.NewToken()
	b.mu.Lock(token)
	defer b.mu.Unlock(token)

	n, parent, name, err := b.resolve(path)
	if err != nil {
		return err
	}
	if n == nil {
		return vfscommon.ErrDoesNotExist
	}
	if parent == nil {
		return fmt.Errorf("memfs: cannot remove root: %w", vfscommon.ErrAccessDenied)
	}
	if n.kind == kindDir && len(n.children) > 0 {
		return vfscommon.ErrDirectoryNotEmpty
	}
	parent.removeChild(name)
	return nil
}

func (b *Backend) Rename(ctx context.Context, oldPath, newPath string) error {
	token := rmutex.NewToken()
	b.mu.Lock(token)
	defer b.mu.Unlock(token)

	n, oldParent, _, err := b.resolve(oldPath)
	if err != nil {
		return err
	}
	if n == nil {
		return vfscommon.ErrDoesNotExist
	}
	if oldParent == nil {
		return fmt.Errorf("memfs: cannot rename root: %w", vfscommon.ErrAccessDenied)
	}
	existing, newParent, newName, err := b.resolve(newPath)
	if err != nil {
		return err
	}
	if existing != nil {
		return vfscommon.ErrAlreadyExists
	}
	if newParent == nil {
		return vfscommon.ErrDoesNotExist
	}
	oldParent.removeChild(n.name)
	n.name = newName
	newParent.addChild(n)
	return nil
}

func (b *Backend) First(ctx context.Context, dir string) (backend.DirIterator, error) {
	token := rmutex.NewToken()
	b.mu.Lock(token)
	defer b.mu.Unlock(token)

	n, _, _, err := b.resolve(dir)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, vfscommon.ErrDoesNotExist
	}
	if n.kind != kindDir {
		return nil, vfscommon.ErrNotDirectory
	}
	return &dirIterator{dir: n}, nil
}

type dirIterator struct {
	dir *node
	idx int
}

func (it *dirIterator) Next() (backend.DirEntry, bool, error) {
	if it.idx >= len(it.dir.children) {
		return backend.DirEntry{}, false, nil
	}
	c := it.dir.children[it.idx]
	it.idx++
	return backend.DirEntry{Name: c.name, Info: c.info()}, true, nil
}

func (it *dirIterator) Close() error { return nil }

var _ backend.Backend = (*Backend)(nil)
var _ backend.Remover = (*Backend)(nil)
var _ backend.Renamer = (*Backend)(nil)
var _ backend.Mkdirer = (*Backend)(nil)
