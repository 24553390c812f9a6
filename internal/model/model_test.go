package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestReviewStatusString(t *testing.T) {
	tests := []struct {
		status ReviewStatus
		want   string
	}{
		{ReviewPending, "pending"},
		{ReviewTrusted, "trusted"},
		{ReviewApproved, "approved"},
		{ReviewRejected, "rejected"},
		{ReviewSavedForLater, "saved_for_later"},
		{ReviewStatus(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("ReviewStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestExplicitReview(t *testing.T) {
	tests := []struct {
		status HunkStatus
		want   ReviewStatus
		ok     bool
	}{
		{StatusNone, ReviewPending, false},
		{StatusApproved, ReviewApproved, true},
		{StatusRejected, ReviewRejected, true},
		{StatusSavedForLater, ReviewSavedForLater, true},
		{HunkStatus("bogus"), ReviewPending, false},
	}
	for _, tt := range tests {
		got, ok := ExplicitReview(tt.status)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ExplicitReview(%q) = %v, %v; want %v, %v", tt.status, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseComparison(t *testing.T) {
	tests := []struct {
		key     string
		base    string
		head    string
		wt      bool
		staged  bool
		wantErr bool
	}{
		{key: "main..feature", base: "main", head: "feature"},
		{key: "main..HEAD+working-tree", base: "main", head: "HEAD", wt: true},
		{key: "main..HEAD+staged", base: "main", head: "HEAD", wt: true, staged: true},
		{key: "main..", wantErr: true},
		{key: "..feature", wantErr: true},
		{key: "main", wantErr: true},
		{key: "main...feature", wantErr: true},
		{key: "", wantErr: true},
		{key: "HEAD..+working-tree", wantErr: true},
		{key: "main..feature+working-tree", wantErr: true},
		{key: "main..feature+staged", wantErr: true},
		{key: "--output=/tmp/x..HEAD", wantErr: true},
		{key: "main..--output=/tmp/x", wantErr: true},
		{key: "-p..HEAD+working-tree", wantErr: true},
	}
	for _, tt := range tests {
		c, err := ParseComparison(tt.key)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidComparison) {
				t.Errorf("ParseComparison(%q) err = %v, want ErrInvalidComparison", tt.key, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseComparison(%q) unexpected error: %v", tt.key, err)
			continue
		}
		if c.Base != tt.base || c.Head != tt.head || c.WorkingTree != tt.wt || c.StagedOnly != tt.staged {
			t.Errorf("ParseComparison(%q) = %+v", tt.key, c)
		}
		if c.Key != tt.key {
			t.Errorf("ParseComparison(%q).Key = %q", tt.key, c.Key)
		}
	}
}

func TestFileHunkStatusCount(t *testing.T) {
	var f FileHunkStatus
	for _, s := range []ReviewStatus{ReviewPending, ReviewTrusted, ReviewApproved, ReviewApproved, ReviewRejected, ReviewSavedForLater} {
		f.Count(s)
	}
	want := FileHunkStatus{Pending: 1, Trusted: 1, Approved: 2, Rejected: 1, SavedForLater: 1, Total: 6}
	if f != want {
		t.Errorf("got %+v, want %+v", f, want)
	}
	if !f.Consistent() {
		t.Error("expected consistent totals")
	}
	if sum := f.Add(f); sum.Total != 12 || sum.Approved != 4 {
		t.Errorf("Add = %+v", sum)
	}
}

func TestReviewStateCloneIsDeep(t *testing.T) {
	c, _ := NewComparison("main", "feature", false, false)
	s := NewReviewState(c, time.Unix(0, 0))
	s.Hunks["a"] = HunkState{Status: StatusApproved, Label: []string{"imports:added"}}
	s.TrustList = []string{"imports:*"}
	s.Guide = &Guide{Groups: []HunkGroup{{Title: "g", HunkIDs: []string{"a"}}}}

	cp := s.Clone()
	cp.Hunks["a"].Label[0] = "changed"
	cp.TrustList[0] = "changed"
	cp.Guide.Groups[0].HunkIDs[0] = "changed"
	cp.Hunks["b"] = HunkState{}

	if s.Hunks["a"].Label[0] != "imports:added" {
		t.Error("clone shares label slice")
	}
	if s.TrustList[0] != "imports:*" {
		t.Error("clone shares trust list")
	}
	if s.Guide.Groups[0].HunkIDs[0] != "a" {
		t.Error("clone shares guide groups")
	}
	if _, ok := s.Hunks["b"]; ok {
		t.Error("clone shares hunk map")
	}
}

func TestReviewStateJSONShape(t *testing.T) {
	c, _ := NewComparison("main", "feature", false, false)
	s := NewReviewState(c, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	s.Hunks["x"] = HunkState{Status: StatusSavedForLater}
	s.Guide = &Guide{Snapshot: NewSnapshot([]string{"b", "a"}, s.CreatedAt)}

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"comparison", "hunks", "trustList", "annotations", "guide", "version", "createdAt", "updatedAt"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing key %q in %s", key, raw)
		}
	}
	guide := m["guide"].(map[string]any)
	ids := guide["hunkIds"].([]any)
	if ids[0] != "a" || ids[1] != "b" {
		t.Errorf("guide hunkIds not sorted: %v", ids)
	}
	hunk := m["hunks"].(map[string]any)["x"].(map[string]any)
	if hunk["status"] != "saved_for_later" {
		t.Errorf("status = %v", hunk["status"])
	}
}
