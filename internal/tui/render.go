package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/hunkr/internal/diff"
	"github.com/sprite-ai/hunkr/internal/model"
)

// renderedLine is a single line of diff output ready for display.
type renderedLine struct {
	OldNum  int // 0 means not applicable (add-only)
	NewNum  int // 0 means not applicable (delete-only)
	Type    model.LineType
	Content string

	// HunkID is set on every line of a hunk; IsHunk marks its header.
	HunkID string
	IsHunk bool

	// Syntax highlighting tokens (nil = no highlighting)
	Tokens []diff.Token
}

// renderFile lays out a file's hunks. hunkStarts holds the line index of
// each hunk header, in hunk order.
func renderFile(f *diff.File) (lines []renderedLine, hunkStarts []int) {
	for i, h := range f.Hunks {
		hunkStarts = append(hunkStarts, len(lines))
		lines = append(lines, renderedLine{IsHunk: true, HunkID: h.ID, Content: h.Header()})

		highlighted := diff.HighlightHunk(h)
		for j, l := range h.Lines {
			rl := renderedLine{
				OldNum:  l.OldLineNumber,
				NewNum:  l.NewLineNumber,
				Type:    l.Type,
				Content: l.Content,
				HunkID:  h.ID,
			}
			if j < len(highlighted) {
				rl.Tokens = highlighted[j].Tokens
			}
			lines = append(lines, rl)
		}

		if i < len(f.Hunks)-1 {
			lines = append(lines, renderedLine{})
		}
	}
	return lines, hunkStarts
}

// renderHighlightedContent renders line content with syntax tokens.
func renderHighlightedContent(rl renderedLine, prefix string) string {
	if len(rl.Tokens) == 0 {
		return contextLineStyle.Render(prefix + rl.Content)
	}
	var b strings.Builder
	b.WriteString(prefix)
	for _, tok := range rl.Tokens {
		if tok.Color != "" {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(tok.Color)).Render(tok.Text))
		} else {
			b.WriteString(tok.Text)
		}
	}
	return b.String()
}

func lineNum(n int) string {
	if n > 0 {
		return fmt.Sprintf("%4d", n)
	}
	return "    "
}

// styleLine applies styling to a rendered line for unified view. Hunk
// headers are rendered by the caller, which knows the review status.
func styleLine(rl renderedLine, width int) string {
	if rl.IsHunk {
		return hunkHeaderStyle.Width(width).Render(rl.Content)
	}
	if rl.HunkID == "" {
		return ""
	}

	lineNums := lineNumberStyle.Render(lineNum(rl.OldNum)) + " " + lineNumberStyle.Render(lineNum(rl.NewNum))
	maxContent := width - 12

	var content string
	switch rl.Type {
	case model.LineAdded:
		content = addedLineStyle.Render(truncate("+"+rl.Content, maxContent))
	case model.LineRemoved:
		content = deletedLineStyle.Render(truncate("-"+rl.Content, maxContent))
	default:
		if maxContent > 0 && lipgloss.Width(" "+rl.Content) > maxContent {
			content = contextLineStyle.Render(truncate(" "+rl.Content, maxContent))
		} else {
			content = renderHighlightedContent(rl, " ")
		}
	}
	return lineNums + " " + content
}

// styleLineSplit renders a line for split (side-by-side) view.
func styleLineSplit(rl renderedLine, halfWidth int) (left, right string) {
	if rl.IsHunk {
		return hunkHeaderStyle.Width(halfWidth).Render(rl.Content), ""
	}
	if rl.HunkID == "" {
		return "", ""
	}

	maxContent := halfWidth - 7
	switch rl.Type {
	case model.LineRemoved:
		left = lineNumberStyle.Render(lineNum(rl.OldNum)) + " " + deletedLineStyle.Render("-"+truncate(rl.Content, maxContent))
		right = strings.Repeat(" ", halfWidth)
	case model.LineAdded:
		left = strings.Repeat(" ", halfWidth)
		right = lineNumberStyle.Render(lineNum(rl.NewNum)) + " " + addedLineStyle.Render("+"+truncate(rl.Content, maxContent))
	default:
		content := truncate(rl.Content, maxContent)
		left = lineNumberStyle.Render(lineNum(rl.OldNum)) + " " + contextLineStyle.Render(" "+content)
		right = lineNumberStyle.Render(lineNum(rl.NewNum)) + " " + contextLineStyle.Render(" "+content)
	}
	return left, right
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) > max {
		return s[:max-1] + "…"
	}
	return s
}
