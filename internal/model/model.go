// Package model defines the core data types shared across hunkr.
package model

// ChangeStatus is the git-level change kind of a file in a comparison.
type ChangeStatus string

const (
	ChangeNone      ChangeStatus = ""
	ChangeAdded     ChangeStatus = "added"
	ChangeModified  ChangeStatus = "modified"
	ChangeDeleted   ChangeStatus = "deleted"
	ChangeRenamed   ChangeStatus = "renamed"
	ChangeUntracked ChangeStatus = "untracked"
)

// Letter returns the one-letter badge used in listings.
func (c ChangeStatus) Letter() string {
	switch c {
	case ChangeAdded:
		return "A"
	case ChangeModified:
		return "M"
	case ChangeDeleted:
		return "D"
	case ChangeRenamed:
		return "R"
	case ChangeUntracked:
		return "?"
	default:
		return " "
	}
}

// FileEntry is one changed file in a comparison.
type FileEntry struct {
	Path        string       `json:"path"`
	Status      ChangeStatus `json:"status,omitempty"`
	RenamedFrom string       `json:"renamedFrom,omitempty"`
	IsSymlink   bool         `json:"isSymlink,omitempty"`
}

// FileHunkStatus counts the hunks of a file (or directory) per review bucket.
// Every hunk lands in exactly one bucket, so Total is the sum of the rest.
type FileHunkStatus struct {
	Pending       int `json:"pending"`
	Approved      int `json:"approved"`
	Trusted       int `json:"trusted"`
	Rejected      int `json:"rejected"`
	SavedForLater int `json:"savedForLater"`
	Total         int `json:"total"`
}

// Count records one hunk in the bucket for s.
func (f *FileHunkStatus) Count(s ReviewStatus) {
	switch s {
	case ReviewRejected:
		f.Rejected++
	case ReviewApproved:
		f.Approved++
	case ReviewSavedForLater:
		f.SavedForLater++
	case ReviewTrusted:
		f.Trusted++
	default:
		f.Pending++
	}
	f.Total++
}

// Add returns the field-wise sum of f and o.
func (f FileHunkStatus) Add(o FileHunkStatus) FileHunkStatus {
	return FileHunkStatus{
		Pending:       f.Pending + o.Pending,
		Approved:      f.Approved + o.Approved,
		Trusted:       f.Trusted + o.Trusted,
		Rejected:      f.Rejected + o.Rejected,
		SavedForLater: f.SavedForLater + o.SavedForLater,
		Total:         f.Total + o.Total,
	}
}

// Reviewed is the number of hunks that need no further attention.
func (f FileHunkStatus) Reviewed() int {
	return f.Approved + f.Trusted + f.Rejected
}

// Consistent reports whether Total equals the sum of the buckets.
func (f FileHunkStatus) Consistent() bool {
	return f.Total == f.Pending+f.Approved+f.Trusted+f.Rejected+f.SavedForLater
}
