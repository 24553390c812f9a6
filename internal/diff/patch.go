package diff

import (
	"fmt"
	"strings"

	"github.com/sprite-ai/hunkr/internal/model"
)

// Patch renders a unified diff holding only the hunks keep accepts. New
// start lines are shifted to account for left-out hunks, so the result
// applies to the base side with `git apply`.
func Patch(files []*File, keep func(model.Hunk) bool) string {
	var b strings.Builder
	for _, f := range files {
		if f.IsBinary {
			continue
		}
		var kept []model.Hunk
		var shifts []int
		origDelta, keptDelta := 0, 0
		for _, h := range f.Hunks {
			if keep(h) {
				kept = append(kept, h)
				shifts = append(shifts, keptDelta-origDelta)
				keptDelta += h.NewCount - h.OldCount
			}
			origDelta += h.NewCount - h.OldCount
		}
		if len(kept) == 0 {
			continue
		}
		writeFileHeader(&b, f)
		for i, h := range kept {
			fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart+shifts[i], h.NewCount)
			for _, l := range h.Lines {
				switch l.Type {
				case model.LineAdded:
					b.WriteByte('+')
				case model.LineRemoved:
					b.WriteByte('-')
				default:
					b.WriteByte(' ')
				}
				b.WriteString(l.Content)
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

func writeFileHeader(b *strings.Builder, f *File) {
	oldName, newName := "a/"+f.OldName, "b/"+f.NewName
	if f.IsNew || f.Untracked || f.OldName == "" {
		oldName = "/dev/null"
	}
	if f.IsDeleted || f.NewName == "" {
		newName = "/dev/null"
	}
	from, to := f.OldName, f.NewName
	if from == "" {
		from = to
	}
	if to == "" {
		to = from
	}
	mode := "100644"
	if f.IsSymlink {
		mode = "120000"
	}

	fmt.Fprintf(b, "diff --git a/%s b/%s\n", from, to)
	switch {
	case f.IsNew || f.Untracked:
		fmt.Fprintf(b, "new file mode %s\n", mode)
	case f.IsDeleted:
		fmt.Fprintf(b, "deleted file mode %s\n", mode)
	case f.IsRenamed:
		fmt.Fprintf(b, "rename from %s\nrename to %s\n", f.OldName, f.NewName)
	}
	fmt.Fprintf(b, "--- %s\n", oldName)
	fmt.Fprintf(b, "+++ %s\n", newName)
}

// CommitMessage suggests a commit message for the files with kept hunks.
func CommitMessage(files []*File, keep func(model.Hunk) bool) string {
	var touched []*File
	for _, f := range files {
		for _, h := range f.Hunks {
			if keep(h) {
				touched = append(touched, f)
				break
			}
		}
	}
	if len(touched) == 0 {
		return ""
	}

	var b strings.Builder
	if len(touched) == 1 {
		f := touched[0]
		switch {
		case f.IsNew || f.Untracked:
			fmt.Fprintf(&b, "Add %s", f.Name())
		case f.IsDeleted:
			fmt.Fprintf(&b, "Remove %s", f.Name())
		default:
			fmt.Fprintf(&b, "Update %s", f.Name())
		}
	} else {
		added, modified, deleted := 0, 0, 0
		for _, f := range touched {
			switch {
			case f.IsNew || f.Untracked:
				added++
			case f.IsDeleted:
				deleted++
			default:
				modified++
			}
		}
		var parts []string
		if modified > 0 {
			parts = append(parts, fmt.Sprintf("update %d file(s)", modified))
		}
		if added > 0 {
			parts = append(parts, fmt.Sprintf("add %d file(s)", added))
		}
		if deleted > 0 {
			parts = append(parts, fmt.Sprintf("remove %d file(s)", deleted))
		}
		msg := strings.Join(parts, ", ")
		b.WriteString(strings.ToUpper(msg[:1]) + msg[1:])
	}

	b.WriteString("\n\nReviewed files:\n")
	for _, f := range touched {
		fmt.Fprintf(&b, "  - %s\n", f.Name())
	}
	return b.String()
}
