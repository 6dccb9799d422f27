package findowners

import (
	"sort"
	"strings"

	"codeowners/internal/model"
)

// format renders a config in canonical form: "set noparent" first, then
// global imports, then sorted global owners, then per-file lines. Parsing
// the output yields a semantically equal config.
func format(cfg model.CodeOwnerConfig) string {
	var lines []string

	if cfg.IgnoreParentCodeOwners {
		lines = append(lines, directiveSetNoparent)
	}

	for _, ref := range cfg.Imports {
		lines = append(lines, formatImport(ref))
	}

	var globalOwners []string
	for _, set := range cfg.GlobalCodeOwnerSets() {
		for _, o := range set.CodeOwners {
			globalOwners = append(globalOwners, o.Email)
		}
	}
	sort.Strings(globalOwners)
	lines = append(lines, globalOwners...)

	for _, set := range cfg.PerFileCodeOwnerSets() {
		lines = append(lines, formatPerFile(set)...)
	}

	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func formatImport(ref model.CodeOwnerConfigReference) string {
	if ref.Mode == model.ImportModeAll {
		return "include " + ref.String()
	}
	return "file: " + ref.String()
}

func formatPerFile(set model.CodeOwnerSet) []string {
	exprs := strings.Join(set.PathExpressions, ",")
	var lines []string
	if set.IgnoreGlobalAndParentCodeOwners {
		lines = append(lines, "per-file "+exprs+" = "+directiveSetNoparent)
	}
	if len(set.CodeOwners) > 0 {
		owners := make([]string, 0, len(set.CodeOwners))
		for _, o := range set.CodeOwners {
			owners = append(owners, o.Email)
		}
		sort.Strings(owners)
		lines = append(lines, "per-file "+exprs+" = "+strings.Join(owners, ","))
	}
	for _, ref := range set.Imports {
		lines = append(lines, "per-file "+exprs+" = file: "+ref.String())
	}
	return lines
}
