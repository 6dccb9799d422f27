package store

import (
	"context"
	"fmt"
	"sync"

	"codeowners/internal/model"
)

// MemStore is an in-memory TreeStore used by tests and by callers that
// assemble trees programmatically. Revisions are synthetic sequential ids.
type MemStore struct {
	mu      sync.Mutex
	seq     int
	trees   map[Revision]map[string][]byte
	parents map[Revision]Revision
	refs    map[string]map[string]Revision // project -> full ref -> tip
}

func NewMemStore() *MemStore {
	return &MemStore{
		trees:   make(map[Revision]map[string][]byte),
		parents: make(map[Revision]Revision),
		refs:    make(map[string]map[string]Revision),
	}
}

// Commit adds a commit to the given branch applying the file changes (nil
// content deletes) on top of the current tip and returns the new revision.
func (s *MemStore) Commit(project, branch string, files map[string][]byte) Revision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(project, branch, files)
}

func (s *MemStore) commitLocked(project, branch string, files map[string][]byte) Revision {
	ref := model.FullRef(branch)
	tree := make(map[string][]byte)

	if branches, ok := s.refs[project]; ok {
		if tip, ok := branches[ref]; ok {
			for p, c := range s.trees[tip] {
				tree[p] = c
			}
		}
	}
	for p, c := range files {
		p = normalizeBlobPath(p)
		if c == nil {
			delete(tree, p)
			continue
		}
		tree[p] = append([]byte(nil), c...)
	}

	s.seq++
	rev := Revision(fmt.Sprintf("rev-%04d", s.seq))
	s.trees[rev] = tree
	if branches, ok := s.refs[project]; ok {
		if tip, ok := branches[ref]; ok {
			s.parents[rev] = tip
		}
	} else {
		s.refs[project] = make(map[string]Revision)
	}
	s.refs[project][ref] = rev
	return rev
}

func (s *MemStore) ResolveRevision(ctx context.Context, project, ref string) (Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trees[Revision(ref)]; ok {
		return Revision(ref), nil
	}
	branches, ok := s.refs[project]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrProjectNotFound, project)
	}
	tip, ok := branches[model.FullRef(ref)]
	if !ok {
		return "", fmt.Errorf("branch %q not found in project %q", ref, project)
	}
	return tip, nil
}

func (s *MemStore) ReadBlob(ctx context.Context, project string, rev Revision, path string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tree, ok := s.trees[rev]
	if !ok {
		return nil, false, fmt.Errorf("revision %q not found", rev)
	}
	content, ok := tree[normalizeBlobPath(path)]
	if !ok {
		return nil, false, nil
	}
	return content, true, nil
}

func (s *MemStore) ParentRevision(ctx context.Context, project string, rev Revision) (Revision, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	parent, ok := s.parents[rev]
	return parent, ok, nil
}

func (s *MemStore) ChangedPaths(ctx context.Context, project string, rev Revision) ([]ChangedPath, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tree, ok := s.trees[rev]
	if !ok {
		return nil, fmt.Errorf("revision %q not found", rev)
	}
	parentTree := map[string][]byte{}
	if parent, ok := s.parents[rev]; ok {
		parentTree = s.trees[parent]
	}

	var out []ChangedPath
	for p := range tree {
		old, existed := parentTree[p]
		if !existed {
			out = append(out, ChangedPath{Status: model.FileStatusAdded, NewPath: p})
		} else if string(old) != string(tree[p]) {
			out = append(out, ChangedPath{Status: model.FileStatusModified, OldPath: p, NewPath: p})
		}
	}
	for p := range parentTree {
		if _, exists := tree[p]; !exists {
			out = append(out, ChangedPath{Status: model.FileStatusDeleted, OldPath: p})
		}
	}
	return out, nil
}

func (s *MemStore) WriteCommit(ctx context.Context, project, branch, message string, files map[string][]byte) (Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(project, branch, files), nil
}

func normalizeBlobPath(p string) string {
	if len(p) > 0 && p[0] == '/' {
		return p[1:]
	}
	return p
}
