// Package config computes the per-project, per-branch snapshot of all
// code-owners tunables. Settings live in git-config syntax: a
// code-owners.config file on the project's refs/meta/config branch, an
// optional host-global config file, and the transitively inherited
// configs of parent projects.
package config

import (
	"context"
	"fmt"

	"gopkg.in/ini.v1"

	"codeowners/internal/model"
	"codeowners/internal/store"
)

// Config file locations and the section all keys live under.
const (
	SectionCodeOwners = "codeOwners"
	ProjectConfigFile = "code-owners.config"
	MetaConfigRef     = "refs/meta/config"
)

// Keys in the codeOwners section.
const (
	KeyBackend                         = "backend"
	KeyFileExtension                   = "fileExtension"
	KeyReadOnly                        = "readOnly"
	KeyDisabled                        = "disabled"
	KeyDisabledBranch                  = "disabledBranch"
	KeyFallbackCodeOwners              = "fallbackCodeOwners"
	KeyMergeCommitStrategy             = "mergeCommitStrategy"
	KeyGlobalCodeOwner                 = "globalCodeOwner"
	KeyExemptedAccount                 = "exemptedAccount"
	KeyAllowedEmailDomain              = "allowedEmailDomain"
	KeyEnableImplicitApprovals         = "enableImplicitApprovals"
	KeyEnableValidationOnCommitReceive = "enableValidationOnCommitReceived"
	KeyEnableValidationOnSubmit        = "enableValidationOnSubmit"
	KeyRejectNonResolvableCodeOwners   = "rejectNonResolvableCodeOwners"
	KeyRejectNonResolvableImports      = "rejectNonResolvableImports"
	KeyMaxPathsInChangeMessages        = "maxPathsInChangeMessages"
	KeyOverrideInfoURL                 = "overrideInfoUrl"
	KeyRequiredApproval                = "requiredApproval"
	KeyOverrideApproval                = "overrideApproval"
	KeyInheritFrom                     = "inheritFrom"
)

// source is one parsed config file in the inheritance chain.
type source struct {
	file *ini.File
	name string // project name, or "<global>"
}

// Loader reads config sources and assembles snapshots.
type Loader struct {
	Store store.TreeStore

	// GlobalPath is an optional host-global config file on local disk.
	GlobalPath string
}

func iniLoadOptions() ini.LoadOptions {
	// Keys are case-insensitive in git-config syntax; section subsection
	// names (branch refs) are not. Repeated keys are multi-valued.
	return ini.LoadOptions{AllowShadows: true, InsensitiveKeys: true}
}

// Snapshot resolves every tunable for the given project and branch. The
// result is read-only and valid for the duration of one request.
func (l *Loader) Snapshot(ctx context.Context, project, branch string) (*Snapshot, error) {
	chain, err := l.loadChain(ctx, project)
	if err != nil {
		return nil, err
	}

	global, err := l.loadGlobal()
	if err != nil {
		return nil, err
	}

	r := &resolution{
		project: project,
		branch:  model.FullRef(branch),
		chain:   chain,
		global:  global,
	}
	return r.resolve()
}

// loadChain loads the project config and, transitively, the configs of
// its parent projects, child first. Inheritance cycles terminate the
// chain at the first repeated project.
func (l *Loader) loadChain(ctx context.Context, project string) ([]source, error) {
	var chain []source
	seen := map[string]struct{}{}

	for project != "" {
		if _, ok := seen[project]; ok {
			break
		}
		seen[project] = struct{}{}

		file, found, err := l.loadProject(ctx, project)
		if err != nil {
			return nil, err
		}
		if !found {
			break
		}
		chain = append(chain, source{file: file, name: project})
		project = file.Section(SectionCodeOwners).Key(KeyInheritFrom).String()
	}
	return chain, nil
}

func (l *Loader) loadProject(ctx context.Context, project string) (*ini.File, bool, error) {
	rev, err := l.Store.ResolveRevision(ctx, project, MetaConfigRef)
	if err != nil {
		// A project without a config branch has no project-level config.
		return nil, false, nil
	}
	content, found, err := l.Store.ReadBlob(ctx, project, rev, ProjectConfigFile)
	if err != nil {
		return nil, false, fmt.Errorf("read %s of project %q: %w", ProjectConfigFile, project, err)
	}
	if !found {
		return nil, false, nil
	}
	file, err := ini.LoadSources(iniLoadOptions(), content)
	if err != nil {
		return nil, false, fmt.Errorf("parse %s of project %q: %w", ProjectConfigFile, project, err)
	}
	return file, true, nil
}

func (l *Loader) loadGlobal() (*source, error) {
	if l.GlobalPath == "" {
		return nil, nil
	}
	file, err := ini.LoadSources(iniLoadOptions(), l.GlobalPath)
	if err != nil {
		return nil, fmt.Errorf("parse global config %s: %w", l.GlobalPath, err)
	}
	return &source{file: file, name: "<global>"}, nil
}
