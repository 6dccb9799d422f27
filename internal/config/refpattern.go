package config

import (
	"regexp"
	"strings"

	"codeowners/internal/model"
)

// matchesRefPattern reports whether a branch matches a configured ref
// pattern. Supported forms, tried in this order:
//
//   - exact full ref name ("refs/heads/main")
//   - exact short branch name ("main")
//   - regular expression, selected by a leading '^'
//   - prefix pattern ending in "/*" ("refs/heads/release/*")
//
// Invalid regex patterns never match.
func matchesRefPattern(pattern, branch string) bool {
	ref := model.FullRef(branch)
	short := strings.TrimPrefix(ref, model.RefsHeadsPrefix)

	switch {
	case pattern == ref || pattern == short:
		return true
	case strings.HasPrefix(pattern, "^"):
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(ref) || re.MatchString(short)
	case strings.HasSuffix(pattern, "/*"):
		prefix := strings.TrimSuffix(pattern, "*")
		return strings.HasPrefix(ref, prefix) || strings.HasPrefix(short, prefix)
	default:
		return false
	}
}
