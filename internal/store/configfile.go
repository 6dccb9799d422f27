package store

import (
	"context"
	"errors"
	"fmt"

	"codeowners/internal/backend"
	"codeowners/internal/model"
)

// ErrConfigReadOnly is returned by Update when code owner configs are
// configured as read-only for the project.
var ErrConfigReadOnly = errors.New("code owner config files are read-only")

// ConfigFile loads and updates code owner config files through a
// TreeStore using a concrete backend.
type ConfigFile struct {
	Store         TreeStore
	Backend       backend.Backend
	FileExtension string
	ReadOnly      bool
}

// FileName is the effective config file name: the backend's default name
// plus the configured file extension, if any.
func (f *ConfigFile) FileName() string {
	name := f.Backend.FileName()
	if f.FileExtension != "" {
		name += "." + f.FileExtension
	}
	return name
}

// Load reads and parses the config for the given key at the given
// revision. The second return value is false when no config file exists
// in the key's folder.
func (f *ConfigFile) Load(ctx context.Context, key model.Key, rev Revision) (model.CodeOwnerConfig, bool, error) {
	path := key.BlobPath(f.FileName())
	content, found, err := f.Store.ReadBlob(ctx, key.Project, rev, path)
	if err != nil {
		return model.CodeOwnerConfig{}, false, err
	}
	if !found {
		return model.CodeOwnerConfig{}, false, nil
	}
	cfg, err := f.Backend.Parse(key, content)
	if err != nil {
		return model.CodeOwnerConfig{}, false, err
	}
	return cfg, true, nil
}

// LoadRef resolves the key's branch and loads the config at its tip.
func (f *ConfigFile) LoadRef(ctx context.Context, key model.Key) (model.CodeOwnerConfig, bool, error) {
	rev, err := f.Store.ResolveRevision(ctx, key.Project, key.Branch)
	if err != nil {
		return model.CodeOwnerConfig{}, false, err
	}
	return f.Load(ctx, key, rev)
}

// Modification transforms the current config (zero-valued with exists ==
// false when absent) into the desired config. It must be pure; the update
// flow may call it against a freshly loaded config.
type Modification func(current model.CodeOwnerConfig, exists bool) model.CodeOwnerConfig

// Update applies a copy-on-write modification to the config for the given
// key: load current, modify, then write the new commit. A modification
// result that is empty deletes the config file instead of storing it; an
// update that deletes an absent config is a no-op and returns the current
// tip.
func (f *ConfigFile) Update(ctx context.Context, key model.Key, message string, modify Modification) (Revision, error) {
	if f.ReadOnly {
		return "", ErrConfigReadOnly
	}
	tip, err := f.Store.ResolveRevision(ctx, key.Project, key.Branch)
	if err != nil {
		return "", err
	}
	current, exists, err := f.Load(ctx, key, tip)
	if err != nil {
		return "", err
	}

	updated := modify(current, exists)
	updated.Key = key
	path := key.BlobPath(f.FileName())

	if updated.IsEmpty() {
		if !exists {
			return tip, nil
		}
		return f.Store.WriteCommit(ctx, key.Project, key.Branch, message, map[string][]byte{path: nil})
	}

	content, err := f.Backend.Format(updated)
	if err != nil {
		return "", fmt.Errorf("format %s: %w", key, err)
	}
	return f.Store.WriteCommit(ctx, key.Project, key.Branch, message, map[string][]byte{path: content})
}
