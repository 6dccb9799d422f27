// Package approval decides whether changed paths have collected
// sufficient code owner approvals.
package approval

import (
	"context"

	"codeowners/internal/config"
	"codeowners/internal/model"
	"codeowners/internal/store"
	"codeowners/internal/walker"
)

// Status of the code owner approval for one path.
type Status string

const (
	// StatusInsufficientReviewers: no code owner of the path is on the
	// reviewer list.
	StatusInsufficientReviewers Status = "INSUFFICIENT_REVIEWERS"

	// StatusPending: a code owner is a reviewer but has not voted at the
	// required threshold yet.
	StatusPending Status = "PENDING"

	// StatusApproved: the path has a sufficient code owner approval, an
	// override approval, or an implicit approval.
	StatusApproved Status = "APPROVED"
)

// PathStatus is the evaluation outcome for one path.
type PathStatus struct {
	Path   string `json:"path"`
	Status Status `json:"status"`

	// Reason names the rule that produced an APPROVED status:
	// "override", "implicit", "exempted-uploader" or "vote". Empty for
	// non-approved paths.
	Reason string `json:"reason,omitempty"`

	// Issues carries import-resolution issues hit while computing the
	// owners of the path.
	Issues []string `json:"issues,omitempty"`
}

// FileStatus combines the path statuses of one changed file. Renames
// evaluate old and new path independently; both must be approved.
type FileStatus struct {
	File      model.ChangedFile `json:"file"`
	OldStatus *PathStatus       `json:"old_status,omitempty"`
	NewStatus *PathStatus       `json:"new_status,omitempty"`
}

// Resolved reports whether every evaluated path of the file is approved.
func (f FileStatus) Resolved() bool {
	for _, ps := range []*PathStatus{f.OldStatus, f.NewStatus} {
		if ps != nil && ps.Status != StatusApproved {
			return false
		}
	}
	return true
}

// Evaluator computes per-path approval statuses for a change.
type Evaluator struct {
	Walker   *walker.Walker
	Snapshot *config.Snapshot

	// RequiredLabelIgnoresSelfApproval mirrors the label definition of
	// the required approval: when set, votes by the uploader do not
	// count, and implicit approvals are off.
	RequiredLabelIgnoresSelfApproval bool
}

// EvaluateChange evaluates every changed file of the change at the given
// revision.
func (e *Evaluator) EvaluateChange(ctx context.Context, change model.Change, rev store.Revision) ([]FileStatus, error) {
	out := make([]FileStatus, 0, len(change.Files))
	for _, file := range change.Files {
		fs, err := e.EvaluateFile(ctx, change, rev, file)
		if err != nil {
			return nil, err
		}
		out = append(out, fs)
	}
	return out, nil
}

// EvaluateFile evaluates the (old path, new path) pair of one changed
// file. A deleted file's old path still requires approval; an added
// file's new path does.
func (e *Evaluator) EvaluateFile(ctx context.Context, change model.Change, rev store.Revision, file model.ChangedFile) (FileStatus, error) {
	fs := FileStatus{File: file}
	if file.OldPath != "" && (file.Status == model.FileStatusDeleted || file.Status == model.FileStatusRenamed) {
		ps, err := e.EvaluatePath(ctx, change, rev, file.OldPath)
		if err != nil {
			return FileStatus{}, err
		}
		fs.OldStatus = &ps
	}
	if file.NewPath != "" && file.Status != model.FileStatusDeleted {
		ps, err := e.EvaluatePath(ctx, change, rev, file.NewPath)
		if err != nil {
			return FileStatus{}, err
		}
		fs.NewStatus = &ps
	}
	return fs, nil
}

// EvaluatePath runs the state machine for a single path.
func (e *Evaluator) EvaluatePath(ctx context.Context, change model.Change, rev store.Revision, path string) (PathStatus, error) {
	ps := PathStatus{Path: model.NormalizeFilePath(path), Status: StatusInsufficientReviewers}

	// Override approvals are evaluated independently of code owners and
	// short-circuit. The list is ordered ascending, so the lowest
	// configured threshold wins.
	for _, override := range e.Snapshot.OverrideApprovals {
		for _, vote := range change.Votes {
			if vote.Label == override.Label && vote.Value >= override.Value {
				ps.Status = StatusApproved
				ps.Reason = "override"
				return ps, nil
			}
		}
	}

	if e.Snapshot.IsExempted(change.Uploader) {
		ps.Status = StatusApproved
		ps.Reason = "exempted-uploader"
		return ps, nil
	}

	owners, err := e.resolveOwners(ctx, change, rev, ps.Path)
	if err != nil {
		return PathStatus{}, err
	}
	for _, issue := range owners.Issues {
		ps.Issues = append(ps.Issues, issue.String())
	}

	required := e.Snapshot.RequiredApproval
	uploaderOwns := owners.OwnedBy(change.Uploader)

	if e.Snapshot.EnableImplicitApprovals && !e.RequiredLabelIgnoresSelfApproval && uploaderOwns {
		ps.Status = StatusApproved
		ps.Reason = "implicit"
		return ps, nil
	}

	pending := false
	for _, owner := range owners.Owners {
		if value, voted := change.VoteValue(owner.AccountID, required.Label); voted && value >= required.Value {
			if owner.AccountID == change.Uploader && e.RequiredLabelIgnoresSelfApproval {
				continue
			}
			ps.Status = StatusApproved
			ps.Reason = "vote"
			return ps, nil
		}
		if change.IsReviewer(owner.AccountID) {
			pending = true
		}
	}
	if pending {
		ps.Status = StatusPending
	}
	return ps, nil
}

// resolveOwners resolves the path's code owners plus the configured
// global code owners. Visibility is not enforced: approval computation is
// a server-side decision.
func (e *Evaluator) resolveOwners(ctx context.Context, change model.Change, rev store.Revision, path string) (walker.Result, error) {
	result, err := e.Walker.ResolvePathCodeOwners(ctx, change.Project, change.Branch, rev, path, walker.Options{
		Requester:         change.Uploader,
		EnforceVisibility: false,
	})
	if err != nil {
		return walker.Result{}, err
	}

	for _, email := range e.Snapshot.GlobalCodeOwners {
		resolved, err := e.Walker.Resolver.Resolve(ctx, model.NewCodeOwnerReference(email), change.Uploader, false)
		if err != nil {
			return walker.Result{}, err
		}
		for _, owner := range resolved {
			if !result.OwnedBy(owner.AccountID) {
				result.Owners = append(result.Owners, model.ScoredCodeOwner{CodeOwner: owner, Distance: globalOwnerDistance})
			}
		}
	}
	return result, nil
}

// globalOwnerDistance ranks configured global owners behind every owner
// found in the folder hierarchy.
const globalOwnerDistance = 1 << 20
