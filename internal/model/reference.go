package model

import "strings"

// AllUsersWildcard is the owner reference value that stands for all
// registered users.
const AllUsersWildcard = "*"

// CodeOwnerReference is an unresolved textual owner identifier: an email
// address or the all-users wildcard. It has no semantics beyond value
// equality; resolution happens in the resolver.
type CodeOwnerReference struct {
	Email string
}

func NewCodeOwnerReference(email string) CodeOwnerReference {
	return CodeOwnerReference{Email: email}
}

// IsAllUsers reports whether the reference is the all-users wildcard.
func (r CodeOwnerReference) IsAllUsers() bool {
	return r.Email == AllUsersWildcard
}

func (r CodeOwnerReference) String() string {
	return r.Email
}

// ImportMode controls which parts of an imported code owner config take
// effect in the importing config.
type ImportMode string

const (
	// ImportModeAll imports the whole config: global owner sets, per-file
	// owner sets and the ignore-parent flag.
	ImportModeAll ImportMode = "ALL"

	// ImportModeGlobalCodeOwnerSetsOnly imports only owner sets without
	// path expressions. Per-file sets and the ignore-parent flag of the
	// imported config are ignored.
	ImportModeGlobalCodeOwnerSetsOnly ImportMode = "GLOBAL_CODE_OWNER_SETS_ONLY"
)

// ImportType describes the context an import was declared in.
type ImportType string

const (
	// ImportTypeGlobal is an import declared at the top level of a config.
	ImportTypeGlobal ImportType = "GLOBAL"

	// ImportTypePerFile is an import declared inside a per-file owner set.
	// It only applies to paths matched by that set.
	ImportTypePerFile ImportType = "PER_FILE"
)

// CodeOwnerConfigReference points at another code owner config to import.
// Project and Branch are optional; empty values mean "same as the importing
// config".
type CodeOwnerConfigReference struct {
	Project  string
	Branch   string
	FilePath string
	Mode     ImportMode
}

// NewCodeOwnerConfigReference creates an import reference for the given
// mode and file path. The path is normalized to absolute form.
func NewCodeOwnerConfigReference(mode ImportMode, filePath string) CodeOwnerConfigReference {
	return CodeOwnerConfigReference{
		FilePath: NormalizeFilePath(filePath),
		Mode:     mode,
	}
}

// Key resolves the import reference against the key of the importing
// config, filling in project and branch when the reference leaves them
// unset.
func (r CodeOwnerConfigReference) Key(importing Key) Key {
	project := r.Project
	if project == "" {
		project = importing.Project
	}
	branch := r.Branch
	if branch == "" {
		branch = importing.Branch
	}
	folder, _ := splitFilePath(r.FilePath)
	return NewKey(project, branch, folder)
}

// FileName returns the file name component of the referenced config file.
func (r CodeOwnerConfigReference) FileName() string {
	_, name := splitFilePath(r.FilePath)
	return name
}

func (r CodeOwnerConfigReference) String() string {
	var b strings.Builder
	if r.Project != "" {
		b.WriteString(r.Project)
		b.WriteString(":")
	}
	if r.Branch != "" {
		b.WriteString(r.Branch)
		b.WriteString(":")
	}
	b.WriteString(strings.TrimPrefix(r.FilePath, "/"))
	return b.String()
}

func splitFilePath(filePath string) (folder, name string) {
	filePath = NormalizeFilePath(filePath)
	idx := strings.LastIndex(filePath, "/")
	return NormalizeFolderPath(filePath[:idx+1]), filePath[idx+1:]
}
