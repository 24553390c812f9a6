// Package fingerprint derives content keys for hunks: the changed-lines
// fingerprint used to find identical changes across files, the content hash
// used to address a hunk independent of its position, and the move-pair
// candidate filters.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/sprite-ai/hunkr/internal/model"
)

// Of returns the fingerprint of h built from its added and removed lines
// only, in order. Context lines, line numbers and the file path do not
// contribute. ok is false when h has no changed lines.
func Of(h model.Hunk) (fp string, ok bool) {
	var b strings.Builder
	for _, l := range h.Lines {
		switch l.Type {
		case model.LineAdded:
			writeLine(&b, '+', l.Content)
		case model.LineRemoved:
			writeLine(&b, '-', l.Content)
		}
	}
	if b.Len() == 0 {
		return "", false
	}
	return hashString(b.String()), true
}

// writeLine appends a length-prefixed, tagged line so that no two distinct
// line sequences produce the same stream.
func writeLine(b *strings.Builder, tag byte, content string) {
	b.WriteByte(tag)
	b.WriteString(strconv.Itoa(len(content)))
	b.WriteByte(':')
	b.WriteString(content)
	b.WriteByte('\n')
}

// IdenticalIndex maps each hunk id to the ids of the other hunks sharing its
// fingerprint. Hunks with a unique fingerprint, or none, are absent.
func IdenticalIndex(hunks []model.Hunk) map[string][]string {
	byFP := make(map[string][]string)
	var order []string
	for _, h := range hunks {
		fp, ok := Of(h)
		if !ok {
			continue
		}
		if _, seen := byFP[fp]; !seen {
			order = append(order, fp)
		}
		byFP[fp] = append(byFP[fp], h.ID)
	}

	index := make(map[string][]string)
	for _, fp := range order {
		ids := byFP[fp]
		if len(ids) < 2 {
			continue
		}
		for i, id := range ids {
			others := make([]string, 0, len(ids)-1)
			others = append(others, ids[:i]...)
			others = append(others, ids[i+1:]...)
			index[id] = others
		}
	}
	return index
}

// IsMoveSource reports whether h only removes code: every line is removed
// or context and at least one is removed.
func IsMoveSource(h model.Hunk) bool {
	return onlyChanges(h, model.LineRemoved)
}

// IsMoveTarget reports whether h only adds code.
func IsMoveTarget(h model.Hunk) bool {
	return onlyChanges(h, model.LineAdded)
}

func onlyChanges(h model.Hunk, kind model.LineType) bool {
	changed := false
	for _, l := range h.Lines {
		switch l.Type {
		case kind:
			changed = true
		case model.LineContext:
		default:
			return false
		}
	}
	return changed
}

// MoveCandidates splits hunks into deletion-only sources and addition-only
// targets for the external move detector.
func MoveCandidates(hunks []model.Hunk) (sources, targets []model.Hunk) {
	for _, h := range hunks {
		switch {
		case IsMoveSource(h):
			sources = append(sources, h)
		case IsMoveTarget(h):
			targets = append(targets, h)
		}
	}
	return sources, targets
}

// MovePair returns the hunk h was paired with. A pair id that does not name a
// hunk in byID means there is no pair.
func MovePair(h model.Hunk, byID map[string]model.Hunk) (model.Hunk, bool) {
	if h.MovePairID == "" || h.MovePairID == h.ID {
		return model.Hunk{}, false
	}
	p, ok := byID[h.MovePairID]
	return p, ok
}

// ContentHash returns a position-independent hash of a hunk body. CRLF is
// normalized so identical content yields the same hash on every platform.
func ContentHash(lines []model.DiffLine) string {
	var b strings.Builder
	for _, l := range lines {
		switch l.Type {
		case model.LineAdded:
			b.WriteByte('+')
		case model.LineRemoved:
			b.WriteByte('-')
		default:
			b.WriteByte(' ')
		}
		b.WriteString(strings.ReplaceAll(l.Content, "\r\n", "\n"))
		b.WriteByte('\n')
	}
	return hashString(b.String())
}

// HunkID builds the stable id of a hunk from its file and content hash.
func HunkID(filePath, contentHash string) string {
	short := contentHash
	if len(short) > 12 {
		short = short[:12]
	}
	return filePath + ":" + short
}

func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}
