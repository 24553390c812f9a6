package aggregate

import (
	"path"
	"slices"
	"strings"

	"github.com/sprite-ai/hunkr/internal/model"
)

// Node is a file or directory in the review tree.
type Node struct {
	Name  string
	Path  string
	IsDir bool

	// OwnStatus is set only when the file list names this node directly.
	OwnStatus model.ChangeStatus
	IsSymlink bool

	// Status is OwnStatus for files and the uniform leaf status for
	// directories, empty when the leaves disagree.
	Status      model.ChangeStatus
	RenamedFrom string
	Counts      model.FileHunkStatus

	Children []*Node
}

// BuildTree lays files out as a directory tree and folds counts and change
// status upwards. Paths present in counts but missing from files are added as
// leaves without a change status so every hunk is accounted for. A FileEntry
// whose path ends in "/" describes a directory itself.
func BuildTree(files []model.FileEntry, counts map[string]model.FileHunkStatus) *Node {
	root := &Node{IsDir: true}
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if strings.HasSuffix(f.Path, "/") {
			d := root.dir(strings.TrimSuffix(f.Path, "/"))
			d.OwnStatus = f.Status
			d.IsSymlink = f.IsSymlink
			continue
		}
		seen[f.Path] = true
		leaf := root.file(f.Path)
		leaf.OwnStatus = f.Status
		leaf.RenamedFrom = f.RenamedFrom
		leaf.IsSymlink = f.IsSymlink
	}
	for p := range counts {
		if !seen[p] {
			root.file(p)
		}
	}
	root.fold(counts)
	return root
}

func (n *Node) child(name string, dir bool) *Node {
	for _, c := range n.Children {
		if c.Name == name && c.IsDir == dir {
			return c
		}
	}
	c := &Node{Name: name, Path: path.Join(n.Path, name), IsDir: dir}
	n.Children = append(n.Children, c)
	return c
}

func (n *Node) dir(p string) *Node {
	cur := n
	for _, part := range strings.Split(p, "/") {
		if part == "" {
			continue
		}
		cur = cur.child(part, true)
	}
	return cur
}

func (n *Node) file(p string) *Node {
	dir, name := path.Split(p)
	return n.dir(dir).child(name, false)
}

// leaf is a file below a directory, addressed relative to it. A file's own
// summary carries an empty rel.
type leaf struct {
	rel         string
	renamedFrom string
}

// summary is what a subtree reports to its parent.
type summary struct {
	counts   model.FileHunkStatus
	statuses map[model.ChangeStatus]struct{}
	leaves   []leaf
}

func (n *Node) fold(counts map[string]model.FileHunkStatus) summary {
	if !n.IsDir {
		n.Counts = counts[n.Path]
		n.Status = n.OwnStatus
		return summary{
			counts:   n.Counts,
			statuses: map[model.ChangeStatus]struct{}{n.Status: {}},
			leaves:   []leaf{{renamedFrom: n.RenamedFrom}},
		}
	}
	if len(n.Children) == 0 {
		n.Status = n.OwnStatus
		return summary{statuses: map[model.ChangeStatus]struct{}{n.OwnStatus: {}}}
	}

	slices.SortFunc(n.Children, func(a, b *Node) int {
		if a.IsDir != b.IsDir {
			if a.IsDir {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})

	s := summary{statuses: make(map[model.ChangeStatus]struct{})}
	for _, c := range n.Children {
		cs := c.fold(counts)
		s.counts = s.counts.Add(cs.counts)
		for st := range cs.statuses {
			s.statuses[st] = struct{}{}
		}
		for _, l := range cs.leaves {
			s.leaves = append(s.leaves, leaf{rel: path.Join(c.Name, l.rel), renamedFrom: l.renamedFrom})
		}
	}
	n.Counts = s.counts
	n.Status, _ = uniform(s.statuses)
	if n.Status == model.ChangeRenamed && n.Path != "" {
		n.RenamedFrom = renamedFrom(s.leaves)
	}
	return s
}

func uniform(set map[model.ChangeStatus]struct{}) (model.ChangeStatus, bool) {
	if len(set) != 1 {
		return model.ChangeNone, false
	}
	for s := range set {
		return s, true
	}
	return model.ChangeNone, false
}

// UniformStatus returns the single change status shared by every entry, or
// false when there are zero or several distinct statuses.
func UniformStatus(entries []model.FileEntry) (model.ChangeStatus, bool) {
	set := make(map[model.ChangeStatus]struct{}, 1)
	for _, e := range entries {
		set[e.Status] = struct{}{}
	}
	return uniform(set)
}

// renamedFrom derives the old directory path shared by every leaf: each
// leaf's old path must be <old dir>/<its path relative to this directory>.
func renamedFrom(leaves []leaf) string {
	var old string
	for i, l := range leaves {
		if !strings.HasSuffix(l.renamedFrom, "/"+l.rel) {
			return ""
		}
		cand := strings.TrimSuffix(l.renamedFrom, "/"+l.rel)
		if cand == "" {
			return ""
		}
		if i == 0 {
			old = cand
		} else if cand != old {
			return ""
		}
	}
	return old
}

// Compact collapses chains of directories that each hold exactly one child
// directory into a single "a/b" node. Nodes with their own status or that are
// symlinks are never merged. The tree is rewritten in place and returned.
func Compact(n *Node) *Node {
	if n == nil || !n.IsDir {
		return n
	}
	for i, c := range n.Children {
		n.Children[i] = Compact(c)
	}
	if n.Path == "" || !mergeable(n) || len(n.Children) != 1 {
		return n
	}
	only := n.Children[0]
	if !only.IsDir || !mergeable(only) {
		return n
	}
	merged := *only
	merged.Name = n.Name + "/" + only.Name
	return &merged
}

func mergeable(n *Node) bool {
	return n.OwnStatus == model.ChangeNone && !n.IsSymlink
}

// Walk visits n and its descendants depth-first in child order. Returning
// false from fn skips the node's children.
func Walk(n *Node, fn func(depth int, n *Node) bool) {
	walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(int, *Node) bool) {
	if n == nil || !fn(depth, n) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}
