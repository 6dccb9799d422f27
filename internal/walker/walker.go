// Package walker computes the effective code owners of a path by walking
// the folder hierarchy from the path's folder up to the repository root,
// honoring ignore-parent flags and import directives.
package walker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"codeowners/internal/backend"
	"codeowners/internal/matcher"
	"codeowners/internal/model"
	"codeowners/internal/resolver"
	"codeowners/internal/store"
)

// Walker resolves per-path code owners. It carries its collaborators
// explicitly; there is no ambient state.
type Walker struct {
	Loader   *store.ConfigFile
	Resolver *resolver.Resolver
	Fallback model.FallbackCodeOwners
}

// Options control one resolution.
type Options struct {
	// Requester is the account the resolution runs on behalf of; it is
	// the subject of visibility checks.
	Requester model.AccountID

	// EnforceVisibility filters out owners the requester cannot see.
	EnforceVisibility bool

	// RejectOnUnresolved turns soft import-resolution issues into hard
	// errors. Pre-submit validation uses this.
	RejectOnUnresolved bool
}

// Result is the outcome of resolving the code owners of one path.
type Result struct {
	// Owners are the resolved code owners, ordered by ascending distance
	// (proximity of the defining config to the path), then account id.
	Owners []model.ScoredCodeOwner

	// Issues are the soft failures encountered while following imports.
	Issues []Issue

	// HasDefinedOwners is true when at least one owner reference was
	// found in the walked configs, resolvable or not.
	HasDefinedOwners bool

	// FallbackApplied is true when the fallback policy supplied the
	// owners because no config defined any.
	FallbackApplied bool
}

// OwnedBy reports whether the account is among the resolved owners.
func (r Result) OwnedBy(id model.AccountID) bool {
	for _, o := range r.Owners {
		if o.AccountID == id {
			return true
		}
	}
	return false
}

// ResolvePathCodeOwners resolves the code owners of filePath in the given
// project branch at the given revision.
func (w *Walker) ResolvePathCodeOwners(ctx context.Context, project, branch string, rev store.Revision, filePath string, opts Options) (Result, error) {
	branch = model.FullRef(branch)
	s := &walk{
		w:        w,
		opts:     opts,
		filePath: model.NormalizeFilePath(filePath),
		revs:     map[string]store.Revision{revKey(project, branch): rev},
		visited:  make(map[model.Key]struct{}),
		refs:     make(map[model.CodeOwnerReference]int),
	}

	folder := model.NormalizeFolderPath(strings.TrimSuffix(s.filePath, "/"+baseName(s.filePath)))
	distance := 0
	for {
		key := model.NewKey(project, branch, folder)
		stop, err := s.visitFolder(ctx, key, distance)
		if err != nil {
			return Result{}, err
		}
		if stop {
			break
		}
		parent, ok := model.ParentFolder(folder)
		if !ok {
			break
		}
		folder = parent
		distance++
	}

	return s.finish(ctx)
}

type walk struct {
	w        *Walker
	opts     Options
	filePath string
	revs     map[string]store.Revision
	visited  map[model.Key]struct{}
	refs     map[model.CodeOwnerReference]int
	issues   []Issue
}

func revKey(project, branch string) string {
	return project + "\x00" + branch
}

// visitFolder loads and collects the config of one folder in the primary
// hierarchy. It returns true when the walk must not proceed to the parent
// folder.
func (s *walk) visitFolder(ctx context.Context, key model.Key, distance int) (bool, error) {
	s.visited[key] = struct{}{}

	rev := s.revs[revKey(key.Project, key.Branch)]
	cfg, exists, err := s.w.Loader.Load(ctx, key, rev)
	if err != nil {
		var parseErr *backend.ParseError
		if errors.As(err, &parseErr) {
			if rejectErr := s.addIssue(Issue{Kind: IssueUnparsableConfig, Message: parseErr.Error()}); rejectErr != nil {
				return false, rejectErr
			}
			return false, nil
		}
		return false, err
	}
	if !exists {
		return false, nil
	}
	return s.collect(ctx, cfg, key.FolderPath, distance)
}

// collect gathers owner references from a config. Per-file expressions are
// evaluated against the path relative to baseFolder; imported configs are
// evaluated as if located at the importing folder. The returned bool stops
// the upward walk.
func (s *walk) collect(ctx context.Context, cfg model.CodeOwnerConfig, baseFolder string, distance int) (bool, error) {
	relPath := relativePath(baseFolder, s.filePath)
	stop := cfg.IgnoreParentCodeOwners

	var matched []model.CodeOwnerSet
	restricted := false
	for _, set := range cfg.PerFileCodeOwnerSets() {
		ok, err := matcher.MatchesAny(set.PathExpressions, relPath)
		if err != nil {
			if rejectErr := s.addIssue(Issue{Kind: IssueInvalidExpression, Message: err.Error()}); rejectErr != nil {
				return false, rejectErr
			}
			continue
		}
		if ok {
			matched = append(matched, set)
			if set.IgnoreGlobalAndParentCodeOwners {
				restricted = true
			}
		}
	}

	if !restricted {
		for _, set := range cfg.GlobalCodeOwnerSets() {
			s.addOwners(set.CodeOwners, distance)
			for _, ref := range set.Imports {
				importStop, err := s.importConfig(ctx, ref, cfg.Key, baseFolder, distance, model.ImportTypeGlobal)
				if err != nil {
					return false, err
				}
				stop = stop || importStop
			}
		}
		for _, ref := range cfg.Imports {
			importStop, err := s.importConfig(ctx, ref, cfg.Key, baseFolder, distance, model.ImportTypeGlobal)
			if err != nil {
				return false, err
			}
			stop = stop || importStop
		}
	}

	for _, set := range matched {
		s.addOwners(set.CodeOwners, distance)
		for _, ref := range set.Imports {
			if _, err := s.importConfig(ctx, ref, cfg.Key, baseFolder, distance, model.ImportTypePerFile); err != nil {
				return false, err
			}
		}
	}

	return stop || restricted, nil
}

// importConfig resolves and collects an imported config. Broken imports
// fail softly: they are recorded as issues and resolution of the rest of
// the tree continues. The returned bool propagates the imported config's
// ignore-parent flag for mode ALL imports.
func (s *walk) importConfig(ctx context.Context, ref model.CodeOwnerConfigReference, importingKey model.Key, baseFolder string, distance int, importType model.ImportType) (bool, error) {
	targetKey := ref.Key(importingKey)
	if _, seen := s.visited[targetKey]; seen {
		// Import cycle; skip re-entry.
		return false, nil
	}
	s.visited[targetKey] = struct{}{}

	rk := revKey(targetKey.Project, targetKey.Branch)
	rev, ok := s.revs[rk]
	if !ok {
		var err error
		rev, err = s.w.Loader.Store.ResolveRevision(ctx, targetKey.Project, targetKey.Branch)
		if err != nil {
			kind := IssueMissingBranch
			if errors.Is(err, store.ErrProjectNotFound) {
				kind = IssueMissingProject
			}
			return false, s.addIssue(Issue{Kind: kind, Import: ref, Message: err.Error()})
		}
		s.revs[rk] = rev
	}

	cfg, exists, err := s.w.Loader.Load(ctx, targetKey, rev)
	if err != nil {
		var parseErr *backend.ParseError
		if errors.As(err, &parseErr) {
			return false, s.addIssue(Issue{Kind: IssueUnparsableConfig, Import: ref, Message: parseErr.Error()})
		}
		return false, err
	}
	if !exists {
		return false, s.addIssue(Issue{
			Kind:    IssueMissingConfig,
			Import:  ref,
			Message: fmt.Sprintf("code owner config %s not found", ref),
		})
	}

	// Per-file imports and GLOBAL_CODE_OWNER_SETS_ONLY imports contribute
	// only the global owner sets of the imported config.
	if importType == model.ImportTypePerFile || ref.Mode == model.ImportModeGlobalCodeOwnerSetsOnly {
		for _, set := range cfg.GlobalCodeOwnerSets() {
			s.addOwners(set.CodeOwners, distance)
		}
		return false, nil
	}

	// Mode ALL: the imported config is evaluated as if it were located at
	// the importing folder, its own imports followed recursively and its
	// ignore-parent flag honored.
	return s.collect(ctx, cfg, baseFolder, distance)
}

func (s *walk) addOwners(refs []model.CodeOwnerReference, distance int) {
	for _, ref := range refs {
		if d, ok := s.refs[ref]; !ok || distance < d {
			s.refs[ref] = distance
		}
	}
}

func (s *walk) addIssue(issue Issue) error {
	s.issues = append(s.issues, issue)
	if s.opts.RejectOnUnresolved {
		return &RejectedImportError{Issue: issue}
	}
	return nil
}

func (s *walk) finish(ctx context.Context) (Result, error) {
	result := Result{
		Issues:           s.issues,
		HasDefinedOwners: len(s.refs) > 0,
	}

	refs := s.refs
	if len(refs) == 0 && s.w.Fallback == model.FallbackAllUsers {
		refs = map[model.CodeOwnerReference]int{model.NewCodeOwnerReference(model.AllUsersWildcard): 0}
		result.FallbackApplied = true
	}

	byAccount := make(map[model.AccountID]model.ScoredCodeOwner)
	for ref, distance := range refs {
		owners, err := s.w.Resolver.Resolve(ctx, ref, s.opts.Requester, s.opts.EnforceVisibility)
		if err != nil {
			return Result{}, err
		}
		for _, owner := range owners {
			existing, ok := byAccount[owner.AccountID]
			if !ok || distance < existing.Distance {
				byAccount[owner.AccountID] = model.ScoredCodeOwner{CodeOwner: owner, Distance: distance}
			}
		}
	}

	for _, owner := range byAccount {
		result.Owners = append(result.Owners, owner)
	}
	sort.Slice(result.Owners, func(i, j int) bool {
		if result.Owners[i].Distance != result.Owners[j].Distance {
			return result.Owners[i].Distance < result.Owners[j].Distance
		}
		return result.Owners[i].AccountID < result.Owners[j].AccountID
	})
	return result, nil
}

func relativePath(folder, filePath string) string {
	folder = model.NormalizeFolderPath(folder)
	if folder == "/" {
		return strings.TrimPrefix(filePath, "/")
	}
	return strings.TrimPrefix(filePath, folder)
}

func baseName(p string) string {
	idx := strings.LastIndex(p, "/")
	return p[idx+1:]
}
