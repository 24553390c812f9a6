package classify

import (
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/sprite-ai/hunkr/internal/model"
)

// Manifest files and the ecosystem whose dependency syntax they use.
var manifests = map[string]string{
	"go.mod":           "go",
	"package.json":     "npm",
	"Cargo.toml":       "cargo",
	"requirements.txt": "pip",
	"Pipfile":          "pip",
	"pyproject.toml":   "pip",
	"Gemfile":          "gem",
	"mix.exs":          "hex",
}

var lockfiles = map[string]bool{
	"go.sum":            true,
	"package-lock.json": true,
	"yarn.lock":         true,
	"pnpm-lock.yaml":    true,
	"Cargo.lock":        true,
	"Pipfile.lock":      true,
	"poetry.lock":       true,
	"Gemfile.lock":      true,
	"mix.lock":          true,
	"composer.lock":     true,
}

var (
	importPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\s*import\s*\(\s*$`),
		regexp.MustCompile(`^\s*import\s+(?:\w+\s+|_\s+|\.\s+)?"[^"]+"\s*$`),
		regexp.MustCompile(`^\s*(?:\w+\s+|_\s+|\.\s+)?"[^"\s]+"\s*$`),
		regexp.MustCompile(`^\s*import\s.+\sfrom\s+['"][^'"]+['"];?\s*$`),
		regexp.MustCompile(`^\s*import\s+['"][^'"]+['"];?\s*$`),
		regexp.MustCompile(`^\s*export\s.+\sfrom\s+['"][^'"]+['"];?\s*$`),
		regexp.MustCompile(`^\s*(?:const|let|var)\s+[\w{}, ]+\s*=\s*require\(['"][^'"]+['"]\);?\s*$`),
		regexp.MustCompile(`^\s*(?:from\s+[\w.]+\s+)?import\s+[\w., *()]+;?\s*$`),
		regexp.MustCompile(`^\s*(?:pub\s+)?use\s+[\w:{}, *]+;\s*$`),
		regexp.MustCompile(`^\s*#include\s*[<"][^>"]+[>"]\s*$`),
		regexp.MustCompile(`^\s*require(?:_relative)?\s+['"][^'"]+['"]\s*$`),
	}

	commentPattern = regexp.MustCompile(`^\s*(?://|/\*|\*/|\*(?:\s|$)|--\s|<!--|#(?:\s|$|[^!\[i]))`)

	commentedCodePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\s*(?://|#)\s*(?:func |def |class |if |for |while |return |import |from |const |let |var |pub fn )`),
		regexp.MustCompile(`^\s*(?://|#)\s*\w+\s*[({=]`),
	}

	todoPattern = regexp.MustCompile(`\b(TODO|FIXME|HACK|XXX)\b`)

	broadCatchPatterns = []*regexp.Regexp{
		regexp.MustCompile(`except\s*:`),
		regexp.MustCompile(`except\s+Exception\s*:`),
		regexp.MustCompile(`catch\s*\(\s*(?:Exception|Error|e)\s*\)`),
		regexp.MustCompile(`rescue\s*$`),
		regexp.MustCompile(`rescue\s+StandardError`),
		regexp.MustCompile(`\.catch\(\s*(?:_|err|\(\s*\))\s*=>`),
	}

	generatedMarker = regexp.MustCompile(`(?i)code generated .* do not edit|@generated\b`)

	schemaPathPattern = regexp.MustCompile(`(?i)(migrat|schema|\.proto$|\.prisma$|\.graphql$|(openapi|swagger)\.(ya?ml|json)$)`)

	ddlPattern = regexp.MustCompile(`(?i)\b(?:(?:CREATE|ALTER|DROP)\s+(?:TABLE|INDEX|VIEW|SCHEMA|TYPE|SEQUENCE)|(?:ADD|DROP|RENAME|MODIFY)\s+COLUMN)\b`)
)

// Security-sensitive areas. Labels are "security:<area>".
var securityRules = []struct {
	area string
	re   *regexp.Regexp
}{
	{"auth", regexp.MustCompile(`(?i)(auth|login|logout|password|credential|jwt|oauth|session|cookie)`)},
	{"access", regexp.MustCompile(`(?i)(permission|\brole\b|access.?control|rbac|\bacl\b|authorize|forbidden|is.?admin)`)},
	{"sql", regexp.MustCompile(`(?i)(db\.exec|db\.query|\.prepare\(|raw.?sql|cursor\.execute|\b(SELECT|INSERT|UPDATE|DELETE)\b\s)`)},
	{"crypto", regexp.MustCompile(`(?i)(encrypt|decrypt|hmac|cipher|bcrypt|argon2|scrypt|pbkdf|private.?key|crypto/)`)},
	{"secrets", regexp.MustCompile(`(?i)((api.?key|secret|password|token)\s*[:=]|os\.Getenv|process\.env)`)},
	{"network", regexp.MustCompile(`(?i)(ListenAndServe|InsecureSkipVerify|tls\.Config|allow.?origin|\bcors\b)`)},
	{"exec", regexp.MustCompile(`(?i)(exec\.Command|os\.system|subprocess|child_process|\beval\()`)},
}

// Rules labels hunks from their path and changed lines. The zero value is
// ready to use.
type Rules struct{}

// Labels returns the sorted, deduplicated labels for a hunk of filePath.
// Every hunk gets at least one label.
func (Rules) Labels(filePath string, lines []model.DiffLine) []string {
	var added, removed []string
	for _, l := range lines {
		switch l.Type {
		case model.LineAdded:
			added = append(added, l.Content)
		case model.LineRemoved:
			removed = append(removed, l.Content)
		}
	}

	var labels []string
	add := func(l ...string) { labels = append(labels, l...) }

	base := path.Base(filePath)
	switch {
	case lockfiles[base]:
		add("lockfile:changed")
	case isGenerated(filePath, added, removed):
		add("generated:changed")
	case isDoc(filePath):
		add("docs:changed")
	}
	if isTest(filePath) {
		if len(removed) == 0 {
			add("tests:added")
		} else {
			add("tests:changed")
		}
	}
	if eco, ok := manifests[base]; ok {
		if depsChanged(added, eco) {
			add("deps:added")
		}
		if depsChanged(removed, eco) {
			add("deps:removed")
		}
	}
	if schemaPathPattern.MatchString(filePath) || anyMatch(added, ddlPattern) {
		add("schema:changed")
	}

	switch {
	case len(added)+len(removed) > 0 && squash(added) == squash(removed):
		add("whitespace:changed")
	case allLines(added, removed, isImport):
		add(sideLabels("imports", added, removed)...)
	case allLines(added, removed, isComment):
		if anyMatch(added, commentedCodePatterns...) {
			add("code:commented-out")
		} else {
			add(sideLabels("comments", added, removed)...)
		}
	default:
		add(codeLabels(added, removed)...)
	}

	slices.Sort(labels)
	return slices.Compact(labels)
}

func codeLabels(added, removed []string) []string {
	var out []string
	addSyms := symbolsOfContent(added)
	remSyms := symbolsOfContent(removed)
	for _, s := range remSyms {
		if !slices.Contains(addSyms, s) {
			out = append(out, "functions:removed")
			break
		}
	}
	for _, s := range addSyms {
		if !slices.Contains(remSyms, s) {
			out = append(out, "functions:added")
			break
		}
	}
	code := nonComment(added)
	for _, r := range securityRules {
		if anyMatch(code, r.re) {
			out = append(out, "security:"+r.area)
		}
	}
	if anyMatch(added, todoPattern) {
		out = append(out, "todo:added")
	}
	if anyMatch(code, broadCatchPatterns...) {
		out = append(out, "errors:broad-catch")
	}
	if len(out) == 0 || onlyInformational(out) {
		out = append(out, "code:changed")
	}
	return out
}

// onlyInformational reports whether labels say nothing about what kind of
// code change the hunk is.
func onlyInformational(labels []string) bool {
	for _, l := range labels {
		if strings.HasPrefix(l, "functions:") {
			return false
		}
	}
	return true
}

func sideLabels(category string, added, removed []string) []string {
	var out []string
	if len(nonBlank(added)) > 0 {
		out = append(out, category+":added")
	}
	if len(nonBlank(removed)) > 0 {
		out = append(out, category+":removed")
	}
	return out
}

// allLines reports whether every non-blank, non-bracket changed line
// satisfies pred and there is at least one such line.
func allLines(added, removed []string, pred func(string) bool) bool {
	n := 0
	for _, l := range slices.Concat(added, removed) {
		t := strings.TrimSpace(l)
		if t == "" || t == ")" || t == "(" {
			continue
		}
		if !pred(l) {
			return false
		}
		n++
	}
	return n > 0
}

func isImport(line string) bool {
	return anyMatch([]string{line}, importPatterns...)
}

func isComment(line string) bool {
	return commentPattern.MatchString(line)
}

func anyMatch(lines []string, res ...*regexp.Regexp) bool {
	for _, l := range lines {
		for _, re := range res {
			if re.MatchString(l) {
				return true
			}
		}
	}
	return false
}

func nonBlank(lines []string) []string {
	var out []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func nonComment(lines []string) []string {
	var out []string
	for _, l := range lines {
		if !isComment(l) {
			out = append(out, l)
		}
	}
	return out
}

func squash(lines []string) string {
	return strings.Join(strings.Fields(strings.Join(lines, " ")), "")
}

func symbolsOfContent(lines []string) []string {
	var out []string
	for _, l := range lines {
		if name, ok := defName(l); ok && len(name) > 2 {
			out = append(out, name)
		}
	}
	return out
}

func isGenerated(filePath string, added, removed []string) bool {
	for _, suffix := range []string{".pb.go", "_gen.go", ".gen.go", "_generated.go", ".min.js", ".min.css", ".snap"} {
		if strings.HasSuffix(filePath, suffix) {
			return true
		}
	}
	return anyMatch(added, generatedMarker) || anyMatch(removed, generatedMarker)
}

func isDoc(filePath string) bool {
	switch strings.ToLower(path.Ext(filePath)) {
	case ".md", ".rst", ".adoc", ".txt":
		return !strings.HasSuffix(filePath, "requirements.txt")
	}
	return strings.HasPrefix(filePath, "docs/") || strings.Contains(filePath, "/docs/")
}

func isTest(filePath string) bool {
	base := path.Base(filePath)
	switch {
	case strings.HasSuffix(base, "_test.go"),
		strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py"),
		strings.HasSuffix(base, "_test.py"),
		strings.Contains(base, ".test."),
		strings.Contains(base, ".spec."),
		strings.HasSuffix(base, "_spec.rb"):
		return true
	}
	for _, dir := range strings.Split(path.Dir(filePath), "/") {
		if dir == "test" || dir == "tests" || dir == "__tests__" || dir == "testdata" {
			return true
		}
	}
	return false
}

func depsChanged(lines []string, eco string) bool {
	for _, l := range lines {
		if depName(strings.TrimSpace(l), eco) != "" {
			return true
		}
	}
	return false
}

// depName extracts a dependency name from one manifest line.
func depName(line, eco string) string {
	switch eco {
	case "go":
		if strings.HasPrefix(line, "require ") {
			if parts := strings.Fields(line); len(parts) >= 3 {
				return parts[1]
			}
		}
		parts := strings.Fields(line)
		if len(parts) >= 2 && strings.Contains(parts[0], "/") && !strings.HasPrefix(parts[0], "//") {
			return parts[0]
		}
	case "npm":
		name, _, ok := strings.Cut(strings.TrimSuffix(line, ","), ":")
		if !ok {
			return ""
		}
		name = strings.Trim(name, `" `)
		switch name {
		case "", "dependencies", "devDependencies", "peerDependencies", "name", "version", "main", "scripts":
			return ""
		}
		return name
	case "cargo":
		if strings.HasPrefix(line, "[") || strings.HasPrefix(line, "#") {
			return ""
		}
		name, _, ok := strings.Cut(line, "=")
		name = strings.TrimSpace(name)
		if !ok || strings.Contains(name, ".") {
			return ""
		}
		switch name {
		case "", "name", "version", "edition", "authors", "description", "license":
			return ""
		}
		return name
	case "pip":
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "[") {
			return ""
		}
		for _, sep := range []string{"==", ">=", "<=", "!=", "~=", ">", "<"} {
			if i := strings.Index(line, sep); i > 0 {
				return strings.Trim(strings.TrimSpace(line[:i]), `"'`)
			}
		}
		if !strings.ContainsAny(line, " =") {
			return line
		}
	case "gem":
		if strings.HasPrefix(line, "gem ") {
			name, _, _ := strings.Cut(strings.TrimPrefix(line, "gem "), ",")
			return strings.Trim(name, `'" `)
		}
	case "hex":
		if strings.HasPrefix(line, "{:") {
			if end := strings.Index(line, ","); end > 2 {
				return line[2:end]
			}
		}
	}
	return ""
}
