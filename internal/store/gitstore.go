package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5/util"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"codeowners/internal/model"
)

// ErrProjectNotFound is returned when a project name does not map to a
// repository under the projects directory.
var ErrProjectNotFound = errors.New("project not found")

// GitStore is a TreeStore over local git repositories. Projects are
// resolved by name relative to a projects directory; the empty project
// name maps to the primary repository.
type GitStore struct {
	primaryPath string
	primaryName string
	projectsDir string

	mu    sync.Mutex
	repos map[string]*git.Repository
}

// NewGitStore opens a store rooted at the given repository. projectsDir
// may be empty; then cross-project references cannot be resolved.
func NewGitStore(repoPath, projectName, projectsDir string) *GitStore {
	return &GitStore{
		primaryPath: repoPath,
		primaryName: projectName,
		projectsDir: projectsDir,
		repos:       make(map[string]*git.Repository),
	}
}

func (s *GitStore) open(project string) (*git.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.repos[project]; ok {
		return r, nil
	}

	path := s.primaryPath
	if project != "" && project != s.primaryName {
		if s.projectsDir == "" {
			return nil, fmt.Errorf("%w: %s (no projects directory configured)", ErrProjectNotFound, project)
		}
		path = filepath.Join(s.projectsDir, filepath.FromSlash(project))
	}

	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, project)
		}
		return nil, fmt.Errorf("open repository for project %q: %w", project, err)
	}
	s.repos[project] = r
	return r, nil
}

func (s *GitStore) ResolveRevision(ctx context.Context, project, ref string) (Revision, error) {
	repo, err := s.open(project)
	if err != nil {
		return "", err
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", fmt.Errorf("resolve %q in project %q: %w", ref, project, err)
	}
	return Revision(hash.String()), nil
}

func (s *GitStore) commit(project string, rev Revision) (*object.Commit, error) {
	repo, err := s.open(project)
	if err != nil {
		return nil, err
	}
	commit, err := repo.CommitObject(plumbing.NewHash(string(rev)))
	if err != nil {
		return nil, fmt.Errorf("load commit %s in project %q: %w", rev, project, err)
	}
	return commit, nil
}

func (s *GitStore) ReadBlob(ctx context.Context, project string, rev Revision, path string) ([]byte, bool, error) {
	commit, err := s.commit(project, rev)
	if err != nil {
		return nil, false, err
	}
	file, err := commit.File(strings.TrimPrefix(path, "/"))
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s at %s: %w", path, rev, err)
	}
	content, err := file.Contents()
	if err != nil {
		return nil, false, fmt.Errorf("read %s at %s: %w", path, rev, err)
	}
	return []byte(content), true, nil
}

func (s *GitStore) ParentRevision(ctx context.Context, project string, rev Revision) (Revision, bool, error) {
	commit, err := s.commit(project, rev)
	if err != nil {
		return "", false, err
	}
	if commit.NumParents() == 0 {
		return "", false, nil
	}
	parent, err := commit.Parent(0)
	if err != nil {
		return "", false, fmt.Errorf("load parent of %s: %w", rev, err)
	}
	return Revision(parent.Hash.String()), true, nil
}

func (s *GitStore) ChangedPaths(ctx context.Context, project string, rev Revision) ([]ChangedPath, error) {
	commit, err := s.commit(project, rev)
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("load tree of %s: %w", rev, err)
	}

	var parentTree *object.Tree
	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("load parent of %s: %w", rev, err)
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return nil, fmt.Errorf("load parent tree of %s: %w", rev, err)
		}
	}

	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, fmt.Errorf("diff %s against parent: %w", rev, err)
	}

	out := make([]ChangedPath, 0, len(changes))
	for _, ch := range changes {
		action, err := ch.Action()
		if err != nil {
			return nil, fmt.Errorf("diff %s against parent: %w", rev, err)
		}
		cp := ChangedPath{OldPath: ch.From.Name, NewPath: ch.To.Name}
		switch action {
		case merkletrie.Insert:
			cp.Status = model.FileStatusAdded
		case merkletrie.Delete:
			cp.Status = model.FileStatusDeleted
		default:
			cp.Status = model.FileStatusModified
			if ch.From.Name != ch.To.Name {
				cp.Status = model.FileStatusRenamed
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

// WriteCommit applies the file changes in the repository worktree and
// commits them on the current branch. It requires a non-bare repository
// whose checked-out branch matches the requested one.
func (s *GitStore) WriteCommit(ctx context.Context, project, branch, message string, files map[string][]byte) (Revision, error) {
	repo, err := s.open(project)
	if err != nil {
		return "", err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("worktree for project %q: %w", project, err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("head of project %q: %w", project, err)
	}
	if want := model.FullRef(branch); want != "" && head.Name().String() != want {
		return "", fmt.Errorf("project %q has %s checked out, not %s", project, head.Name(), want)
	}

	for path, content := range files {
		path = strings.TrimPrefix(path, "/")
		if content == nil {
			if _, err := wt.Remove(path); err != nil {
				return "", fmt.Errorf("remove %s: %w", path, err)
			}
			continue
		}
		if err := util.WriteFile(wt.Filesystem, path, content, 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
		if _, err := wt.Add(path); err != nil {
			return "", fmt.Errorf("stage %s: %w", path, err)
		}
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "codeowners",
			Email: "codeowners@localhost",
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("commit to project %q: %w", project, err)
	}
	return Revision(hash.String()), nil
}
