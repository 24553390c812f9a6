package model

import "fmt"

// LineType marks a diff line as context, added or removed.
type LineType int

const (
	LineContext LineType = iota
	LineAdded
	LineRemoved
)

func (t LineType) String() string {
	switch t {
	case LineContext:
		return "context"
	case LineAdded:
		return "added"
	case LineRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t LineType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *LineType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "context":
		*t = LineContext
	case "added":
		*t = LineAdded
	case "removed":
		*t = LineRemoved
	default:
		return fmt.Errorf("unknown line type %q", string(b))
	}
	return nil
}

// DiffLine is one line of a hunk. Line numbers are 0 when not applicable.
type DiffLine struct {
	Type          LineType `json:"type"`
	Content       string   `json:"content"`
	OldLineNumber int      `json:"oldLineNumber,omitempty"`
	NewLineNumber int      `json:"newLineNumber,omitempty"`
}

// Hunk is an immutable unit of a diff. Hunks are produced on every diff load
// and never mutated afterwards.
type Hunk struct {
	ID          string     `json:"id"`
	FilePath    string     `json:"filePath"`
	OldStart    int        `json:"oldStart"`
	OldCount    int        `json:"oldCount"`
	NewStart    int        `json:"newStart"`
	NewCount    int        `json:"newCount"`
	Lines       []DiffLine `json:"lines"`
	ContentHash string     `json:"contentHash"`
	MovePairID  string     `json:"movePairId,omitempty"`
}

// Stats returns the number of added and removed lines.
func (h Hunk) Stats() (added, removed int) {
	for _, l := range h.Lines {
		switch l.Type {
		case LineAdded:
			added++
		case LineRemoved:
			removed++
		}
	}
	return added, removed
}

// Header renders the unified diff "@@" line for the hunk.
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
}

// HunkIDs returns the ids of hunks in order.
func HunkIDs(hunks []Hunk) []string {
	ids := make([]string, len(hunks))
	for i, h := range hunks {
		ids[i] = h.ID
	}
	return ids
}
