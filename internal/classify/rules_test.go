package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sprite-ai/hunkr/internal/model"
)

func lines(spec ...string) []model.DiffLine {
	var out []model.DiffLine
	for _, s := range spec {
		l := model.DiffLine{Content: s[1:]}
		switch s[0] {
		case '+':
			l.Type = model.LineAdded
		case '-':
			l.Type = model.LineRemoved
		default:
			l.Type = model.LineContext
		}
		out = append(out, l)
	}
	return out
}

func TestRulesLabels(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		lines []model.DiffLine
		want  []string
	}{
		{
			name:  "go import block",
			path:  "main.go",
			lines: lines(" import (", `+	"fmt"`, `+	log "github.com/x/log"`, " )"),
			want:  []string{"imports:added"},
		},
		{
			name:  "js import removed",
			path:  "web/app.ts",
			lines: lines(`-import { x } from "./x";`, " const a = 1;"),
			want:  []string{"imports:removed"},
		},
		{
			name:  "python imports swapped",
			path:  "app.py",
			lines: lines("-import os", "+from pathlib import Path"),
			want:  []string{"imports:added", "imports:removed"},
		},
		{
			name:  "comment only",
			path:  "main.go",
			lines: lines("+// Serve starts the listener.", " func Serve() {"),
			want:  []string{"comments:added"},
		},
		{
			name:  "commented out code",
			path:  "main.go",
			lines: lines("+// if err != nil {"),
			want:  []string{"code:commented-out"},
		},
		{
			name:  "reindent",
			path:  "main.go",
			lines: lines("-\treturn x", "+    return x"),
			want:  []string{"whitespace:changed"},
		},
		{
			name:  "blank lines",
			path:  "main.go",
			lines: lines("+", "+   "),
			want:  []string{"whitespace:changed"},
		},
		{
			name:  "go.mod dependency",
			path:  "go.mod",
			lines: lines(" require (", "+\tgithub.com/newdep/foo v1.2.3", " )"),
			want:  []string{"code:changed", "deps:added"},
		},
		{
			name:  "lockfile",
			path:  "sub/go.sum",
			lines: lines("+github.com/a/b v1.0.0 h1:abc="),
			want:  []string{"code:changed", "lockfile:changed"},
		},
		{
			name:  "docs",
			path:  "README.md",
			lines: lines("+Install with go install."),
			want:  []string{"code:changed", "docs:changed"},
		},
		{
			name:  "new test function",
			path:  "pkg/x_test.go",
			lines: lines("+func TestThing(t *testing.T) {", "+}"),
			want:  []string{"functions:added", "tests:added"},
		},
		{
			name:  "removed function",
			path:  "pkg/x.go",
			lines: lines("-func helper() int {", "-\treturn 1", "-}"),
			want:  []string{"functions:removed"},
		},
		{
			name:  "security and todo",
			path:  "srv/run.go",
			lines: lines(`+	cmd := exec.Command("sh", "-c", s) // TODO validate`),
			want:  []string{"code:changed", "security:exec", "todo:added"},
		},
		{
			name:  "ddl",
			path:  "db/001_init.sql",
			lines: lines("+CREATE TABLE users (id INT);"),
			want:  []string{"code:changed", "schema:changed"},
		},
		{
			name:  "generated marker",
			path:  "api/types.go",
			lines: lines("+// Code generated by protoc-gen-go. DO NOT EDIT.", "+package api"),
			want:  []string{"code:changed", "generated:changed"},
		},
		{
			name:  "plain logic",
			path:  "calc.go",
			lines: lines("-\treturn a + b", "+\treturn a - b"),
			want:  []string{"code:changed"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rules{}.Labels(tt.path, tt.lines))
		})
	}
}

func TestRulesNeverEmpty(t *testing.T) {
	assert.NotEmpty(t, Rules{}.Labels("x.go", nil))
	assert.NotEmpty(t, Rules{}.Labels("x.go", lines(" context only")))
}

func TestDepName(t *testing.T) {
	tests := []struct {
		line, eco, want string
	}{
		{"require github.com/foo/bar v1.2.3", "go", "github.com/foo/bar"},
		{"github.com/foo/bar v1.2.3 // indirect", "go", "github.com/foo/bar"},
		{"go 1.22", "go", ""},
		{`"lodash": "^4.17.21",`, "npm", "lodash"},
		{`"dependencies": {`, "npm", ""},
		{`serde = { version = "1.0" }`, "cargo", "serde"},
		{"[dependencies]", "cargo", ""},
		{"requests>=2.0", "pip", "requests"},
		{"flask", "pip", "flask"},
		{"# comment", "pip", ""},
		{"gem 'rails', '~> 7.0'", "gem", "rails"},
		{`{:phoenix, "~> 1.7"}`, "hex", "phoenix"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, depName(tt.line, tt.eco), "%s %q", tt.eco, tt.line)
	}
}
