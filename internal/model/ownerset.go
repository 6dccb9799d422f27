package model

// CodeOwnerSet groups path expressions with the owner references that apply
// when any expression matches. A set without path expressions applies
// unconditionally. Per-file sets may declare their own imports, scoped to
// matching paths.
type CodeOwnerSet struct {
	PathExpressions []string
	CodeOwners      []CodeOwnerReference
	Imports         []CodeOwnerConfigReference
	// IgnoreGlobalAndParentCodeOwners restricts ownership of the matched
	// paths to this set: owners from sets without path expressions and
	// from parent folders do not apply ("per-file ... = set noparent").
	IgnoreGlobalAndParentCodeOwners bool
}

// NewCodeOwnerSet creates a set without path expressions for the given
// owner emails.
func NewCodeOwnerSet(emails ...string) CodeOwnerSet {
	refs := make([]CodeOwnerReference, 0, len(emails))
	for _, e := range emails {
		refs = append(refs, NewCodeOwnerReference(e))
	}
	return CodeOwnerSet{CodeOwners: dedupReferences(refs)}
}

// NewPerFileCodeOwnerSet creates a set restricted to the given path
// expressions.
func NewPerFileCodeOwnerSet(pathExpressions []string, emails ...string) CodeOwnerSet {
	s := NewCodeOwnerSet(emails...)
	s.PathExpressions = dedupStrings(pathExpressions)
	return s
}

// IsGlobal reports whether the set applies to all paths (no path
// expressions).
func (s CodeOwnerSet) IsGlobal() bool {
	return len(s.PathExpressions) == 0
}

// IsEmpty reports whether the set carries no owners, no imports and no
// flags.
func (s CodeOwnerSet) IsEmpty() bool {
	return len(s.CodeOwners) == 0 && len(s.Imports) == 0 && !s.IgnoreGlobalAndParentCodeOwners
}

// Normalize returns a copy with duplicate path expressions and owner
// references removed, preserving insertion order.
func (s CodeOwnerSet) Normalize() CodeOwnerSet {
	s.PathExpressions = dedupStrings(s.PathExpressions)
	s.CodeOwners = dedupReferences(s.CodeOwners)
	s.Imports = dedupImports(s.Imports)
	return s
}

func dedupStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func dedupReferences(in []CodeOwnerReference) []CodeOwnerReference {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[CodeOwnerReference]struct{}, len(in))
	out := make([]CodeOwnerReference, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func dedupImports(in []CodeOwnerConfigReference) []CodeOwnerConfigReference {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[CodeOwnerConfigReference]struct{}, len(in))
	out := make([]CodeOwnerConfigReference, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
