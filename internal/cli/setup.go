package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"codeowners/internal/config"
	"codeowners/internal/identity"
	"codeowners/internal/resolver"
	"codeowners/internal/store"
	"codeowners/internal/walker"
)

// session holds the wired collaborators for one command invocation.
type session struct {
	store      store.TreeStore
	snapshot   *config.Snapshot
	configFile *store.ConfigFile
	resolver   *resolver.Resolver
	walker     *walker.Walker
	rev        store.Revision
}

func newSession(ctx context.Context, opts *config.Options) (*session, error) {
	gitStore := store.NewGitStore(
		filepath.Join(opts.Target.ProjectsDir, opts.Target.Project),
		opts.Target.Project,
		opts.Target.ProjectsDir,
	)
	treeStore := store.NewDedupStore(gitStore)

	loader := &config.Loader{Store: treeStore, GlobalPath: opts.Eval.GlobalConfig}
	snapshot, err := loader.Snapshot(ctx, opts.Target.Project, opts.Target.Branch)
	if err != nil {
		return nil, fmt.Errorf("resolving code-owners config: %w", err)
	}

	directory, err := buildDirectory(ctx, opts)
	if err != nil {
		return nil, err
	}
	res := resolver.New(directory, snapshot.AllowedEmailDomains)

	configFile := &store.ConfigFile{
		Store:         treeStore,
		Backend:       snapshot.Backend,
		FileExtension: snapshot.FileExtension,
		ReadOnly:      snapshot.ReadOnly,
	}
	w := &walker.Walker{
		Loader:   configFile,
		Resolver: res,
		Fallback: snapshot.FallbackCodeOwners,
	}

	ref := opts.Target.Revision
	if ref == "" {
		ref = opts.Target.Branch
	}
	rev, err := treeStore.ResolveRevision(ctx, opts.Target.Project, ref)
	if err != nil {
		return nil, fmt.Errorf("resolving revision %q: %w", ref, err)
	}

	return &session{
		store:      treeStore,
		snapshot:   snapshot,
		configFile: configFile,
		resolver:   res,
		walker:     w,
		rev:        rev,
	}, nil
}

func buildDirectory(ctx context.Context, opts *config.Options) (identity.Directory, error) {
	if opts.Eval.GitHubOrg != "" {
		token, _, err := identity.ResolveAuthToken(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("failed to resolve GitHub auth token: %w", err)
		}
		if strings.TrimSpace(token) == "" {
			return nil, errors.New("GitHub auth token is required for --github-org (set GITHUB_TOKEN or run 'gh auth login')")
		}
		return identity.NewGitHubDirectory(opts.Eval.GitHubOrg, token, identity.WithVerbose(opts.Runtime.Verbose, nil))
	}
	if opts.Eval.Accounts != "" {
		return identity.LoadStaticDirectory(opts.Eval.Accounts)
	}
	return nil, errors.New("an account directory is required (use --accounts or --github-org)")
}
