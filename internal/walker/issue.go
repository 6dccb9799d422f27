package walker

import (
	"fmt"

	"codeowners/internal/model"
)

// IssueKind classifies why an import or owner reference could not be
// resolved during a hierarchy walk.
type IssueKind string

const (
	IssueMissingProject    IssueKind = "missing_project"
	IssueMissingBranch     IssueKind = "missing_branch"
	IssueMissingConfig     IssueKind = "missing_config"
	IssueUnparsableConfig  IssueKind = "unparsable_config"
	IssueStoreFailure      IssueKind = "store_failure"
	IssueInvalidExpression IssueKind = "invalid_path_expression"
)

// Issue records a soft failure during import resolution. Issues do not
// abort the walk unless the caller requested reject-on-unresolved mode.
type Issue struct {
	Kind    IssueKind
	Import  model.CodeOwnerConfigReference
	Message string
}

func (i Issue) String() string {
	if i.Import.FilePath != "" {
		return fmt.Sprintf("%s: import %s: %s", i.Kind, i.Import, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Kind, i.Message)
}

// RejectedImportError is returned in reject-on-unresolved mode when an
// import cannot be resolved.
type RejectedImportError struct {
	Issue Issue
}

func (e *RejectedImportError) Error() string {
	return "unresolvable import: " + e.Issue.String()
}
