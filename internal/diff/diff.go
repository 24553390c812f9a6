// Package diff parses git diffs into review hunks and runs the git commands
// that produce them.
package diff

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/sprite-ai/hunkr/internal/fingerprint"
	"github.com/sprite-ai/hunkr/internal/model"
)

const symlinkMode = 0o120000

// File is one file of a parsed diff.
type File struct {
	OldName   string
	NewName   string
	IsNew     bool
	IsDeleted bool
	IsRenamed bool
	IsBinary  bool
	IsSymlink bool
	Untracked bool

	Hunks        []model.Hunk
	AddedLines   int
	DeletedLines int
}

// Path is the file's path in the head side of the comparison, or its old
// path when deleted.
func (f *File) Path() string {
	if f.IsDeleted || f.NewName == "" {
		return f.OldName
	}
	return f.NewName
}

// Name returns the display name for the file.
func (f *File) Name() string {
	if f.IsRenamed {
		return fmt.Sprintf("%s → %s", f.OldName, f.NewName)
	}
	return f.Path()
}

// Entry describes the file for tree building.
func (f *File) Entry() model.FileEntry {
	e := model.FileEntry{Path: f.Path(), IsSymlink: f.IsSymlink}
	switch {
	case f.Untracked:
		e.Status = model.ChangeUntracked
	case f.IsNew:
		e.Status = model.ChangeAdded
	case f.IsDeleted:
		e.Status = model.ChangeDeleted
	case f.IsRenamed:
		e.Status = model.ChangeRenamed
		e.RenamedFrom = f.OldName
	default:
		e.Status = model.ChangeModified
	}
	return e
}

// DiffSet holds the parsed diff for all files.
type DiffSet struct {
	Files []*File
	Raw   string
}

// Stats returns aggregate statistics.
func (ds *DiffSet) Stats() (files, added, deleted int) {
	files = len(ds.Files)
	for _, f := range ds.Files {
		added += f.AddedLines
		deleted += f.DeletedLines
	}
	return
}

// Hunks returns every hunk in file order.
func (ds *DiffSet) Hunks() []model.Hunk {
	var out []model.Hunk
	for _, f := range ds.Files {
		out = append(out, f.Hunks...)
	}
	return out
}

// Entries returns one FileEntry per file.
func (ds *DiffSet) Entries() []model.FileEntry {
	out := make([]model.FileEntry, 0, len(ds.Files))
	for _, f := range ds.Files {
		out = append(out, f.Entry())
	}
	return out
}

// File returns the file at path, or nil.
func (ds *DiffSet) File(path string) *File {
	for _, f := range ds.Files {
		if f.Path() == path {
			return f
		}
	}
	return nil
}

// Merge appends other's files, as when untracked files are added to a
// working-tree diff.
func (ds *DiffSet) Merge(other *DiffSet) {
	if other == nil {
		return
	}
	ds.Files = append(ds.Files, other.Files...)
	ds.Raw += other.Raw
}

// Parse reads a unified diff string and returns a DiffSet.
func Parse(raw string) (*DiffSet, error) {
	parsed, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	ds := &DiffSet{Raw: raw}
	for _, f := range parsed {
		df := &File{
			OldName:   f.OldName,
			NewName:   f.NewName,
			IsNew:     f.IsNew,
			IsDeleted: f.IsDelete,
			IsRenamed: f.IsRename,
			IsBinary:  f.IsBinary,
			IsSymlink: f.NewMode&0o170000 == symlinkMode || (f.IsDelete && f.OldMode&0o170000 == symlinkMode),
		}

		seen := make(map[string]int)
		for _, frag := range f.TextFragments {
			h := hunkFromFragment(df.Path(), frag)
			seen[h.ID]++
			if n := seen[h.ID]; n > 1 {
				h.ID += "#" + strconv.Itoa(n)
			}
			added, removed := h.Stats()
			df.AddedLines += added
			df.DeletedLines += removed
			df.Hunks = append(df.Hunks, h)
		}

		ds.Files = append(ds.Files, df)
	}

	return ds, nil
}

func hunkFromFragment(path string, frag *gitdiff.TextFragment) model.Hunk {
	h := model.Hunk{
		FilePath: path,
		OldStart: int(frag.OldPosition),
		OldCount: int(frag.OldLines),
		NewStart: int(frag.NewPosition),
		NewCount: int(frag.NewLines),
		Lines:    make([]model.DiffLine, 0, len(frag.Lines)),
	}
	oldNo, newNo := h.OldStart, h.NewStart
	for _, line := range frag.Lines {
		dl := model.DiffLine{Content: strings.TrimSuffix(strings.TrimSuffix(line.Line, "\n"), "\r")}
		switch line.Op {
		case gitdiff.OpAdd:
			dl.Type = model.LineAdded
			dl.NewLineNumber = newNo
			newNo++
		case gitdiff.OpDelete:
			dl.Type = model.LineRemoved
			dl.OldLineNumber = oldNo
			oldNo++
		default:
			dl.Type = model.LineContext
			dl.OldLineNumber = oldNo
			dl.NewLineNumber = newNo
			oldNo++
			newNo++
		}
		h.Lines = append(h.Lines, dl)
	}
	h.ContentHash = fingerprint.ContentHash(h.Lines)
	h.ID = fingerprint.HunkID(path, h.ContentHash)
	return h
}
