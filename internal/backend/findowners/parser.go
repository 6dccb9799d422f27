package findowners

import (
	"strings"

	"codeowners/internal/model"
)

const (
	directiveSetNoparent = "set noparent"
	directiveInclude     = "include "
	directiveFile        = "file:"
	directivePerFile     = "per-file "
)

func parse(key model.Key, content string) (model.CodeOwnerConfig, error) {
	b := model.NewCodeOwnerConfigBuilder(key)

	var globalOwners []string
	var perFileSets []model.CodeOwnerSet

	for _, rawLine := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		line := stripComment(rawLine)
		if line == "" {
			continue
		}

		switch {
		case line == directiveSetNoparent:
			b.SetIgnoreParentCodeOwners(true)
		case strings.HasPrefix(line, directiveInclude):
			ref, ok := parseImportRef(strings.TrimSpace(strings.TrimPrefix(line, directiveInclude)), model.ImportModeAll)
			if ok {
				b.AddImport(ref)
			}
		case strings.HasPrefix(line, directiveFile):
			ref, ok := parseImportRef(strings.TrimSpace(strings.TrimPrefix(line, directiveFile)), model.ImportModeGlobalCodeOwnerSetsOnly)
			if ok {
				b.AddImport(ref)
			}
		case strings.HasPrefix(line, directivePerFile):
			set, ok := parsePerFile(strings.TrimPrefix(line, directivePerFile))
			if ok {
				perFileSets = append(perFileSets, set)
			}
		default:
			if isValidEmail(line) {
				globalOwners = append(globalOwners, line)
			}
			// Anything else is an invalid line; skip it.
		}
	}

	if len(globalOwners) > 0 {
		b.AddCodeOwnerSet(model.NewCodeOwnerSet(globalOwners...))
	}
	for _, set := range perFileSets {
		b.AddCodeOwnerSet(set)
	}
	return b.Build(), nil
}

// parsePerFile parses the remainder of a "per-file" line:
// "<exprs> = <owners | set noparent | file: ref>".
func parsePerFile(rest string) (model.CodeOwnerSet, bool) {
	exprsPart, valuePart, ok := strings.Cut(rest, "=")
	if !ok {
		return model.CodeOwnerSet{}, false
	}

	var exprs []string
	for _, e := range strings.Split(exprsPart, ",") {
		e = strings.TrimSpace(e)
		if e != "" {
			exprs = append(exprs, e)
		}
	}
	if len(exprs) == 0 {
		return model.CodeOwnerSet{}, false
	}

	value := strings.TrimSpace(valuePart)
	set := model.NewPerFileCodeOwnerSet(exprs)

	switch {
	case value == directiveSetNoparent:
		set.IgnoreGlobalAndParentCodeOwners = true
	case strings.HasPrefix(value, directiveFile):
		ref, ok := parseImportRef(strings.TrimSpace(strings.TrimPrefix(value, directiveFile)), model.ImportModeGlobalCodeOwnerSetsOnly)
		if !ok {
			return model.CodeOwnerSet{}, false
		}
		set.Imports = []model.CodeOwnerConfigReference{ref}
	default:
		var owners []string
		for _, o := range strings.Split(value, ",") {
			o = strings.TrimSpace(o)
			if o != "" && isValidEmail(o) {
				owners = append(owners, o)
			}
		}
		if len(owners) == 0 {
			return model.CodeOwnerSet{}, false
		}
		set = model.NewPerFileCodeOwnerSet(exprs, owners...)
	}
	return set.Normalize(), true
}

// parseImportRef parses "[project:[branch:]]path" import targets.
func parseImportRef(target string, mode model.ImportMode) (model.CodeOwnerConfigReference, bool) {
	if target == "" {
		return model.CodeOwnerConfigReference{}, false
	}
	parts := strings.SplitN(target, ":", 3)
	ref := model.NewCodeOwnerConfigReference(mode, parts[len(parts)-1])
	switch len(parts) {
	case 2:
		ref.Project = strings.TrimSpace(parts[0])
	case 3:
		ref.Project = strings.TrimSpace(parts[0])
		ref.Branch = model.FullRef(strings.TrimSpace(parts[1]))
	}
	if ref.FilePath == "/" {
		return model.CodeOwnerConfigReference{}, false
	}
	return ref, true
}

func stripComment(line string) string {
	if idx := strings.Index(line, "#"); idx >= 0 {
		line = line[:idx]
	}
	return strings.TrimSpace(line)
}

// isValidEmail applies the minimal validity rules of the OWNERS syntax:
// the all-users wildcard, or exactly one '@' with a non-empty local part
// and domain. Invalid emails are dropped at parse time.
func isValidEmail(s string) bool {
	if s == model.AllUsersWildcard {
		return true
	}
	if strings.ContainsAny(s, " \t") {
		return false
	}
	local, domain, ok := strings.Cut(s, "@")
	if !ok || local == "" || domain == "" {
		return false
	}
	return !strings.Contains(domain, "@")
}
