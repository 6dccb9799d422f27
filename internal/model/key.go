package model

import (
	"fmt"
	"path"
	"strings"
)

// RefsHeadsPrefix is the ref namespace for branches.
const RefsHeadsPrefix = "refs/heads/"

// Key identifies a code owner config: the folder in a branch of a project
// for which the config defines code owners.
type Key struct {
	// Project is the name of the project the config belongs to.
	Project string

	// Branch is the full ref name of the branch (refs/heads/...).
	Branch string

	// FolderPath is the absolute, slash-terminated path of the folder,
	// e.g. "/" or "/foo/bar/".
	FolderPath string
}

// NewKey creates a key, normalizing the branch to a full ref name and the
// folder path to absolute slash-terminated form.
func NewKey(project, branch, folderPath string) Key {
	return Key{
		Project:    project,
		Branch:     FullRef(branch),
		FolderPath: NormalizeFolderPath(folderPath),
	}
}

// ShortBranchName returns the branch name without the refs/heads/ prefix.
func (k Key) ShortBranchName() string {
	return strings.TrimPrefix(k.Branch, RefsHeadsPrefix)
}

// FilePath returns the absolute path of the config file with the given name
// inside the key's folder.
func (k Key) FilePath(fileName string) string {
	return k.FolderPath + fileName
}

// BlobPath returns the config file path without the leading slash, as
// expected by tree lookups.
func (k Key) BlobPath(fileName string) string {
	return strings.TrimPrefix(k.FilePath(fileName), "/")
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Project, k.Branch, k.FolderPath)
}

// FullRef expands a short branch name to a full ref name. Refs outside
// refs/ are assumed to be branch short names.
func FullRef(branch string) string {
	if branch == "" || strings.HasPrefix(branch, "refs/") {
		return branch
	}
	return RefsHeadsPrefix + branch
}

// NormalizeFolderPath normalizes a folder path to absolute slash-terminated
// form. The empty string and "." normalize to "/".
func NormalizeFolderPath(folderPath string) string {
	p := path.Clean("/" + strings.TrimPrefix(folderPath, "/"))
	if p == "/" {
		return "/"
	}
	return p + "/"
}

// NormalizeFilePath normalizes a file path to absolute form without a
// trailing slash.
func NormalizeFilePath(filePath string) string {
	return path.Clean("/" + strings.TrimPrefix(filePath, "/"))
}

// ParentFolder returns the folder path of the parent of the given folder,
// and false when the folder is the root.
func ParentFolder(folderPath string) (string, bool) {
	folderPath = NormalizeFolderPath(folderPath)
	if folderPath == "/" {
		return "", false
	}
	parent := path.Dir(strings.TrimSuffix(folderPath, "/"))
	return NormalizeFolderPath(parent), true
}
