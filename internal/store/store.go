// Package store reads and writes code owner config files through a
// versioned tree. Revisions are opaque content-addressed identifiers;
// callers never interpret them.
package store

import (
	"context"

	"codeowners/internal/model"
)

// Revision is an opaque revision identifier (a commit SHA for git-backed
// stores).
type Revision string

// ChangedPath is one path touched by a commit relative to its parent.
type ChangedPath struct {
	Status  model.FileStatus
	OldPath string
	NewPath string
}

// Path returns the path the change is attributed to.
func (c ChangedPath) Path() string {
	if c.Status == model.FileStatusDeleted {
		return c.OldPath
	}
	return c.NewPath
}

// TreeStore is the boundary to the versioned tree holding code owner
// config files.
type TreeStore interface {
	// ResolveRevision resolves a ref name (or revision string) of a
	// project to a revision.
	ResolveRevision(ctx context.Context, project, ref string) (Revision, error)

	// ReadBlob reads the blob at the given path (no leading slash) in the
	// given revision. The second return value is false when the path does
	// not exist at that revision.
	ReadBlob(ctx context.Context, project string, rev Revision, path string) ([]byte, bool, error)

	// ParentRevision returns the first parent of the given revision, and
	// false for root commits.
	ParentRevision(ctx context.Context, project string, rev Revision) (Revision, bool, error)

	// ChangedPaths lists the paths the revision touched relative to its
	// first parent. For root commits every path is reported as added.
	ChangedPaths(ctx context.Context, project string, rev Revision) ([]ChangedPath, error)

	// WriteCommit writes a commit on top of the branch tip that applies
	// the given file changes (nil content deletes the path) and returns
	// the new revision.
	WriteCommit(ctx context.Context, project, branch, message string, files map[string][]byte) (Revision, error)
}
