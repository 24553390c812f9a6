package classify

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sprite-ai/hunkr/internal/model"
)

// Function and type definition patterns for common languages. The first
// capture group is the symbol name.
var defPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*func\s+(\w+)\s*[(\[]`),
	regexp.MustCompile(`^\s*func\s+\([^)]+\)\s+(\w+)\s*\(`),
	regexp.MustCompile(`^\s*type\s+(\w+)\s+(?:struct|interface)\b`),
	regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)\s*\(`),
	regexp.MustCompile(`^\s*class\s+(\w+)`),
	regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s+(\w+)\s*\(`),
	regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?\(`),
	regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?fn\s+(\w+)\s*[(<]`),
	regexp.MustCompile(`^\s*defp?\s+(\w+)`),
	regexp.MustCompile(`^\s*(?:public|private|protected|static|final|abstract|override)\s+[\w<>\[\], ]*?(\w+)\s*\(`),
}

// defName returns the symbol defined on line, if any.
func defName(line string) (string, bool) {
	for _, re := range defPatterns {
		if m := re.FindStringSubmatch(line); len(m) > 1 {
			return m[1], true
		}
	}
	return "", false
}

// Symbols lists the names defined on a hunk's changed lines, in first-seen
// order. Names shorter than three characters are skipped.
func Symbols(h model.Hunk) []string {
	return symbolsOf(h.Lines)
}

func symbolsOf(lines []model.DiffLine) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range lines {
		if l.Type == model.LineContext {
			continue
		}
		if name, ok := defName(l.Content); ok && len(name) > 2 && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

var skipDirs = map[string]bool{
	"vendor": true, "node_modules": true, "dist": true, "build": true, "target": true,
}

func isSourceFile(p string) bool {
	switch filepath.Ext(p) {
	case ".go", ".py", ".js", ".ts", ".tsx", ".jsx", ".rb", ".rs",
		".java", ".kt", ".scala", ".c", ".cpp", ".h", ".hpp",
		".cs", ".ex", ".exs", ".swift", ".php":
		return true
	}
	return false
}

// ReferenceFinder returns a function listing up to limit repository files,
// other than the defining one, that mention a symbol as a whole word.
// Unreadable files are skipped.
func ReferenceFinder(repoDir string, limit int) func(filePath, symbol string) []string {
	return func(filePath, symbol string) []string {
		if repoDir == "" || len(symbol) < 3 {
			return nil
		}
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(symbol) + `\b`)
		var refs []string
		_ = filepath.WalkDir(repoDir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				base := d.Name()
				if p != repoDir && (strings.HasPrefix(base, ".") || skipDirs[base]) {
					return filepath.SkipDir
				}
				return nil
			}
			if !isSourceFile(p) {
				return nil
			}
			rel, err := filepath.Rel(repoDir, p)
			if err != nil || filepath.ToSlash(rel) == filePath {
				return nil
			}
			content, err := os.ReadFile(p)
			if err != nil {
				return nil
			}
			if re.Match(content) {
				refs = append(refs, filepath.ToSlash(rel))
				if limit > 0 && len(refs) >= limit {
					return filepath.SkipAll
				}
			}
			return nil
		})
		return refs
	}
}
