package diff

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/sprite-ai/hunkr/internal/model"
)

// HighlightedLine represents a line with syntax-highlighted tokens.
type HighlightedLine struct {
	Tokens []Token
}

// Token is a syntax-highlighted chunk of text.
type Token struct {
	Text  string
	Color string // hex color, empty for default
}

// Plain returns the concatenated plain text of all tokens.
func (hl HighlightedLine) Plain() string {
	var b strings.Builder
	for _, t := range hl.Tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

// Highlighter colors source lines with one chroma style. Lexers are resolved
// once per file extension. It is safe for concurrent use.
type Highlighter struct {
	style *chroma.Style

	mu     sync.Mutex
	lexers map[string]chroma.Lexer // nil entries cache misses
}

// NewHighlighter returns a Highlighter for the named chroma style, falling
// back to chroma's default style for unknown names.
func NewHighlighter(style string) *Highlighter {
	s := styles.Get(style)
	if s == nil {
		s = styles.Fallback
	}
	return &Highlighter{style: s, lexers: make(map[string]chroma.Lexer)}
}

var defaultHighlighter = NewHighlighter("dracula")

// HighlightLines highlights lines of filename with the default style.
func HighlightLines(filename string, lines []string) []HighlightedLine {
	return defaultHighlighter.Lines(filename, lines)
}

// HighlightHunk highlights a hunk with the default style.
func HighlightHunk(h model.Hunk) []HighlightedLine {
	return defaultHighlighter.Hunk(h)
}

// Lines returns one HighlightedLine per input line. Files without a known
// lexer come back as plain text.
func (hl *Highlighter) Lines(filename string, lines []string) []HighlightedLine {
	lexer := hl.lexer(filename)
	if lexer == nil {
		return plainLines(lines)
	}
	it, err := lexer.Tokenise(nil, strings.Join(lines, "\n"))
	if err != nil {
		return plainLines(lines)
	}

	out := make([]HighlightedLine, len(lines))
	row := 0
	for _, tok := range it.Tokens() {
		for i, part := range strings.Split(tok.Value, "\n") {
			if i > 0 {
				row++
			}
			// Lexers may emit a trailing newline past the last line.
			if part == "" || row >= len(out) {
				continue
			}
			out[row].Tokens = append(out[row].Tokens, Token{Text: part, Color: hl.color(tok.Type)})
		}
	}
	return out
}

// Hunk highlights the old and new sides of h separately, so removed and
// added code each tokenize the way the file read on that side. Context lines
// take their colors from the new side.
func (hl *Highlighter) Hunk(h model.Hunk) []HighlightedLine {
	var oldRows, newRows []int
	var oldSrc, newSrc []string
	for i, l := range h.Lines {
		if l.Type != model.LineAdded {
			oldRows = append(oldRows, i)
			oldSrc = append(oldSrc, l.Content)
		}
		if l.Type != model.LineRemoved {
			newRows = append(newRows, i)
			newSrc = append(newSrc, l.Content)
		}
	}

	out := make([]HighlightedLine, len(h.Lines))
	for j, l := range hl.Lines(h.FilePath, oldSrc) {
		out[oldRows[j]] = l
	}
	for j, l := range hl.Lines(h.FilePath, newSrc) {
		out[newRows[j]] = l
	}
	return out
}

func (hl *Highlighter) lexer(filename string) chroma.Lexer {
	ext := strings.ToLower(filepath.Ext(filename))
	key := ext
	if key == "" {
		key = filepath.Base(filename)
	}

	hl.mu.Lock()
	defer hl.mu.Unlock()
	if l, ok := hl.lexers[key]; ok {
		return l
	}

	l := lexers.Match(filepath.Base(filename))
	if l == nil && ext != "" {
		l = lexers.Match("file" + ext)
	}
	if l != nil {
		l = chroma.Coalesce(l)
	}
	hl.lexers[key] = l
	return l
}

func (hl *Highlighter) color(tt chroma.TokenType) string {
	if e := hl.style.Get(tt); e.Colour.IsSet() {
		return e.Colour.String()
	}
	return ""
}

func plainLines(lines []string) []HighlightedLine {
	out := make([]HighlightedLine, len(lines))
	for i, line := range lines {
		out[i] = HighlightedLine{Tokens: []Token{{Text: line}}}
	}
	return out
}
