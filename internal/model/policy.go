package model

// FallbackCodeOwners is the policy applied to paths that end up with no
// declared code owners after the hierarchy walk.
type FallbackCodeOwners string

const (
	// FallbackNone leaves unowned paths unowned.
	FallbackNone FallbackCodeOwners = "NONE"

	// FallbackAllUsers makes all registered users code owners of unowned
	// paths.
	FallbackAllUsers FallbackCodeOwners = "ALL_USERS"
)

// MergeCommitStrategy controls which files of a merge commit require code
// owner approvals.
type MergeCommitStrategy string

const (
	// MergeAllChangedFiles requires approvals for all files that differ
	// from the first parent.
	MergeAllChangedFiles MergeCommitStrategy = "ALL_CHANGED_FILES"

	// MergeFilesWithConflictResolution requires approvals only for files
	// with conflict resolutions (files that differ from all parents).
	MergeFilesWithConflictResolution MergeCommitStrategy = "FILES_WITH_CONFLICT_RESOLUTION"
)

// ValidationPolicy controls whether code owner config files are validated
// when commits are received or submitted.
type ValidationPolicy string

const (
	// ValidationTrue validates and blocks on new issues.
	ValidationTrue ValidationPolicy = "TRUE"

	// ValidationFalse skips validation.
	ValidationFalse ValidationPolicy = "FALSE"

	// ValidationDryRun validates and reports issues without blocking.
	ValidationDryRun ValidationPolicy = "DRY_RUN"

	// ValidationForced validates even when the code owners functionality
	// is disabled for the branch.
	ValidationForced ValidationPolicy = "FORCED"

	// ValidationForcedDryRun combines FORCED and DRY_RUN.
	ValidationForcedDryRun ValidationPolicy = "FORCED_DRY_RUN"
)

// Blocking reports whether issues found under this policy block the
// commit.
func (p ValidationPolicy) Blocking() bool {
	return p == ValidationTrue || p == ValidationForced
}

// Enabled reports whether validation runs at all under this policy.
func (p ValidationPolicy) Enabled() bool {
	return p != ValidationFalse
}
