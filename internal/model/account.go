package model

// AccountID is an opaque account handle assigned by the identity directory.
type AccountID string

// CodeOwner is a resolved identity authorized to approve changes to a path.
// It is the resolved counterpart of CodeOwnerReference.
type CodeOwner struct {
	AccountID AccountID

	// Email is the email the owner was resolved from, kept for display.
	Email string
}

// ScoredCodeOwner is a code owner annotated with a proximity score for
// suggestion ranking: the number of folder levels between the defining
// config and the requested path. Lower is closer.
type ScoredCodeOwner struct {
	CodeOwner
	Distance int
}
