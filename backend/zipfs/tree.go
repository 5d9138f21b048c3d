package zipfs

import (
	"sort"

	"github.com/vfscore/vfs/vfspath"
)

// treeNode is the accelerated CD lookup node from spec.md §3 "ZIP
// central-directory node": either a file-index (leaf, fileIndex >= 0) or a
// list of children (internal), with children sorted lexicographically so
// sibling lookup is a binary search.
//
// The C design builds this in two passes (an upper-bound pass to size one
// allocation, then a recursive build) because it has no growable
// container. Go slices grow on their own, so this port collapses that into
// a single insertion pass per spec.md §9's "growable node-pool" option —
// the resulting tree has the identical shape and lookup behavior.
type treeNode struct {
	name      string
	fileIndex int // index into the sorted fileInfo slice, or -1
	children  []*treeNode
}

// buildTree builds the node tree from the sorted CD index.
func buildTree(files []fileInfo) *treeNode {
	root := &treeNode{fileIndex: -1}
	for i, f := range files {
		insert(root, vfspath.Segments(f.path), i)
	}
	sortTree(root)
	return root
}

func insert(n *treeNode, segs []string, idx int) {
	if len(segs) == 0 {
		n.fileIndex = idx
		return
	}
	name := segs[0]
	var child *treeNode
	for _, c := range n.children {
		if c.name == name {
			child = c
			break
		}
	}
	if child == nil {
		child = &treeNode{name: name, fileIndex: -1}
		n.children = append(n.children, child)
	}
	insert(child, segs[1:], idx)
}

func sortTree(n *treeNode) {
	sort.Slice(n.children, func(i, j int) bool { return n.children[i].name < n.children[j].name })
	for _, c := range n.children {
		sortTree(c)
	}
}

// lookup descends segs from n, binary-searching sibling names at each
// level, per spec.md §4.7 "Lookup".
func (n *treeNode) lookup(segs []string) *treeNode {
	cur := n
	for _, seg := range segs {
		i := sort.Search(len(cur.children), func(i int) bool { return cur.children[i].name >= seg })
		if i >= len(cur.children) || cur.children[i].name != seg {
			return nil
		}
		cur = cur.children[i]
	}
	return cur
}
