// Package matcher evaluates path expressions against repository-relative
// paths.
//
// Supported expression forms:
//   - glob patterns ("*.md", "foo/**", "docs/*.txt"), doublestar syntax
//   - bare names without a slash ("BUILD", "*.go"), which match in the
//     folder itself and in any subfolder
//   - anchored regular expressions, selected by a leading '^'
package matcher

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// Matches reports whether the path expression matches the given path. The
// path must be relative to the folder the expression was declared in, with
// no leading slash.
func Matches(expr, relPath string) (bool, error) {
	relPath = strings.TrimPrefix(relPath, "/")

	if strings.HasPrefix(expr, "^") {
		re, err := compileRegex(expr)
		if err != nil {
			return false, err
		}
		return re.MatchString(relPath), nil
	}

	pattern := expr
	// A pattern without a slash applies at every folder level below the
	// declaring folder, matching find-owners per-file semantics.
	if !strings.Contains(pattern, "/") {
		pattern = "**/" + pattern
	}
	ok, err := doublestar.Match(pattern, relPath)
	if err != nil {
		return false, fmt.Errorf("invalid path expression %q: %w", expr, err)
	}
	return ok, nil
}

// MatchesAny reports whether any of the expressions matches the path. An
// empty expression list never matches; callers treat sets without
// expressions as matching unconditionally before calling this.
func MatchesAny(exprs []string, relPath string) (bool, error) {
	for _, expr := range exprs {
		ok, err := Matches(expr, relPath)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Validate checks that the expression compiles, without matching anything.
func Validate(expr string) error {
	if strings.HasPrefix(expr, "^") {
		_, err := compileRegex(expr)
		return err
	}
	if _, err := doublestar.Match(expr, ""); err != nil {
		return fmt.Errorf("invalid path expression %q: %w", expr, err)
	}
	return nil
}

func compileRegex(expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid path expression %q: %w", expr, err)
	}
	return re, nil
}
