package model

// HunkStatus is the explicit, user-set status stored for a hunk. The zero
// value means no explicit status.
type HunkStatus string

const (
	StatusNone          HunkStatus = ""
	StatusApproved      HunkStatus = "approved"
	StatusRejected      HunkStatus = "rejected"
	StatusSavedForLater HunkStatus = "saved_for_later"
)

// Valid reports whether s is one of the storable statuses (including none).
func (s HunkStatus) Valid() bool {
	switch s {
	case StatusNone, StatusApproved, StatusRejected, StatusSavedForLater:
		return true
	}
	return false
}

// ReviewStatus is the status of a hunk as seen by a reviewer. Pending and
// Trusted are derived on read and have no HunkStatus counterpart, so they
// can never be persisted.
type ReviewStatus int

const (
	ReviewPending ReviewStatus = iota
	ReviewTrusted
	ReviewApproved
	ReviewRejected
	ReviewSavedForLater
)

func (r ReviewStatus) String() string {
	switch r {
	case ReviewPending:
		return "pending"
	case ReviewTrusted:
		return "trusted"
	case ReviewApproved:
		return "approved"
	case ReviewRejected:
		return "rejected"
	case ReviewSavedForLater:
		return "saved_for_later"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r ReviewStatus) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// ExplicitReview maps a stored status to its review status. ok is false when
// s carries no explicit status.
func ExplicitReview(s HunkStatus) (r ReviewStatus, ok bool) {
	switch s {
	case StatusApproved:
		return ReviewApproved, true
	case StatusRejected:
		return ReviewRejected, true
	case StatusSavedForLater:
		return ReviewSavedForLater, true
	}
	return ReviewPending, false
}
