package config

import (
	"fmt"
	"strconv"
	"strings"

	"codeowners/internal/backend"
	"codeowners/internal/model"
)

// Default values applied when no level of the inheritance chain defines a
// setting.
const (
	DefaultMaxPathsInChangeMessages = 100
)

// DefaultRequiredApproval is the hard-coded required approval.
var DefaultRequiredApproval = model.RequiredApproval{Label: "Code-Review", Value: 1}

// Snapshot is the read-only, per-request view of all resolved tunables
// for one project branch. Every value is resolved once, at construction.
type Snapshot struct {
	Project string
	Branch  string

	Backend       backend.Backend
	FileExtension string

	ReadOnly bool

	// Disabled is true when the code owners functionality is switched off
	// for this branch, either project-wide or by a disabledBranch
	// pattern.
	Disabled bool

	FallbackCodeOwners  model.FallbackCodeOwners
	MergeCommitStrategy model.MergeCommitStrategy

	EnableImplicitApprovals bool

	GlobalCodeOwners    []string
	ExemptedAccounts    []model.AccountID
	AllowedEmailDomains []string

	RejectNonResolvableCodeOwners bool
	RejectNonResolvableImports    bool

	ValidationOnCommitReceived model.ValidationPolicy
	ValidationOnSubmit         model.ValidationPolicy

	MaxPathsInChangeMessages int
	OverrideInfoURL          string

	RequiredApproval  model.RequiredApproval
	OverrideApprovals []model.RequiredApproval

	// Warnings records invalid values that were skipped during
	// resolution (everything except backend and required-approval
	// lookups, which fail hard).
	Warnings []string
}

// IsExempted reports whether the account is exempted from requiring code
// owner approvals as an uploader.
func (s *Snapshot) IsExempted(id model.AccountID) bool {
	for _, e := range s.ExemptedAccounts {
		if e == id {
			return true
		}
	}
	return false
}

type valueAt struct {
	value string
	where string
}

type resolution struct {
	project  string
	branch   string
	chain    []source
	global   *source
	warnings []string
}

// sectionNames returns the section lookup order within one config file:
// branch exact ref, then branch short name, then project level. This
// order is fixed; inheritance is applied per scope before falling through
// to the next scope.
func (r *resolution) sectionNames() []string {
	short := strings.TrimPrefix(r.branch, model.RefsHeadsPrefix)
	return []string{
		SectionCodeOwners + ` "` + r.branch + `"`,
		SectionCodeOwners + ` "` + short + `"`,
		SectionCodeOwners,
	}
}

// valuesInOrder returns every defined value for the key in precedence
// order: for each scope (branch exact, branch short, project), the child
// project first, then its inheritance chain, then the global config.
func (r *resolution) valuesInOrder(key string) []valueAt {
	var out []valueAt
	for _, section := range r.sectionNames() {
		sources := r.chain
		if r.global != nil {
			sources = append(append([]source{}, r.chain...), *r.global)
		}
		for _, src := range sources {
			sec, err := src.file.GetSection(section)
			if err != nil || !sec.HasKey(key) {
				continue
			}
			for _, v := range sec.Key(key).ValueWithShadows() {
				out = append(out, valueAt{value: v, where: fmt.Sprintf("%s [%s]", src.name, section)})
			}
		}
	}
	return out
}

// firstValue returns the highest-precedence defined value for the key.
func (r *resolution) firstValue(key string) (valueAt, bool) {
	values := r.valuesInOrder(key)
	if len(values) == 0 {
		return valueAt{}, false
	}
	return values[0], true
}

// unionValues merges every defined value of a multi-valued key across the
// whole chain, deduplicated, child values first. Parent values are never
// hidden, only extended.
func (r *resolution) unionValues(key string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, v := range r.valuesInOrder(key) {
		if v.value == "" {
			continue
		}
		if _, ok := seen[v.value]; ok {
			continue
		}
		seen[v.value] = struct{}{}
		out = append(out, v.value)
	}
	return out
}

func (r *resolution) boolValue(key string, def bool) bool {
	for _, v := range r.valuesInOrder(key) {
		b, err := parseGitBool(v.value)
		if err != nil {
			r.warnf("ignoring invalid value %q for %s.%s in %s", v.value, SectionCodeOwners, key, v.where)
			continue
		}
		return b
	}
	return def
}

func (r *resolution) intValue(key string, def int) int {
	for _, v := range r.valuesInOrder(key) {
		n, err := strconv.Atoi(strings.TrimSpace(v.value))
		if err != nil {
			r.warnf("ignoring invalid value %q for %s.%s in %s", v.value, SectionCodeOwners, key, v.where)
			continue
		}
		return n
	}
	return def
}

// enumValue returns the first defined value that is in the allowed set.
// Invalid values are recorded as warnings and skipped, falling through to
// the next level of the chain.
func (r *resolution) enumValue(key string, allowed []string, def string) string {
	for _, v := range r.valuesInOrder(key) {
		normalized := strings.ToUpper(strings.TrimSpace(v.value))
		for _, a := range allowed {
			if normalized == a {
				return a
			}
		}
		r.warnf("ignoring invalid value %q for %s.%s in %s", v.value, SectionCodeOwners, key, v.where)
	}
	return def
}

func (r *resolution) warnf(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

func (r *resolution) resolve() (*Snapshot, error) {
	s := &Snapshot{
		Project: r.project,
		Branch:  r.branch,
	}

	// Backend selection fails hard: an unknown backend cannot be
	// defaulted without silently changing which files count as code
	// owner configs.
	backendID := backend.DefaultID
	if v, ok := r.firstValue(KeyBackend); ok {
		backendID = strings.TrimSpace(v.value)
	}
	b, err := backend.Get(backendID)
	if err != nil {
		return nil, invalidConfigf("unknown backend %q for project %q", backendID, r.project)
	}
	s.Backend = b

	if v, ok := r.firstValue(KeyFileExtension); ok {
		s.FileExtension = strings.TrimSpace(v.value)
	}
	if v, ok := r.firstValue(KeyOverrideInfoURL); ok {
		s.OverrideInfoURL = strings.TrimSpace(v.value)
	}

	s.ReadOnly = r.boolValue(KeyReadOnly, false)
	s.EnableImplicitApprovals = r.boolValue(KeyEnableImplicitApprovals, false)
	s.RejectNonResolvableCodeOwners = r.boolValue(KeyRejectNonResolvableCodeOwners, true)
	s.RejectNonResolvableImports = r.boolValue(KeyRejectNonResolvableImports, true)
	s.MaxPathsInChangeMessages = r.intValue(KeyMaxPathsInChangeMessages, DefaultMaxPathsInChangeMessages)

	s.FallbackCodeOwners = model.FallbackCodeOwners(r.enumValue(KeyFallbackCodeOwners,
		[]string{string(model.FallbackNone), string(model.FallbackAllUsers)},
		string(model.FallbackNone)))
	s.MergeCommitStrategy = model.MergeCommitStrategy(r.enumValue(KeyMergeCommitStrategy,
		[]string{string(model.MergeAllChangedFiles), string(model.MergeFilesWithConflictResolution)},
		string(model.MergeAllChangedFiles)))

	validationPolicies := []string{
		string(model.ValidationTrue), string(model.ValidationFalse),
		string(model.ValidationDryRun), string(model.ValidationForced),
		string(model.ValidationForcedDryRun),
	}
	s.ValidationOnCommitReceived = model.ValidationPolicy(r.enumValue(KeyEnableValidationOnCommitReceive,
		validationPolicies, string(model.ValidationTrue)))
	s.ValidationOnSubmit = model.ValidationPolicy(r.enumValue(KeyEnableValidationOnSubmit,
		validationPolicies, string(model.ValidationTrue)))

	s.GlobalCodeOwners = r.unionValues(KeyGlobalCodeOwner)
	s.AllowedEmailDomains = r.unionValues(KeyAllowedEmailDomain)
	for _, a := range r.unionValues(KeyExemptedAccount) {
		s.ExemptedAccounts = append(s.ExemptedAccounts, model.AccountID(a))
	}

	// Required and override approvals fail hard on malformed specs: a
	// silently defaulted approval would change submittability.
	s.RequiredApproval = DefaultRequiredApproval
	if v, ok := r.firstValue(KeyRequiredApproval); ok {
		approval, err := model.ParseRequiredApproval(v.value)
		if err != nil {
			return nil, invalidConfigf("%s in %s", err, v.where)
		}
		s.RequiredApproval = approval
	}
	for _, v := range r.unionValues(KeyOverrideApproval) {
		approval, err := model.ParseRequiredApproval(v)
		if err != nil {
			return nil, invalidConfigf("invalid %s value: %s", KeyOverrideApproval, err)
		}
		s.OverrideApprovals = append(s.OverrideApprovals, approval)
	}
	model.SortRequiredApprovals(s.OverrideApprovals)

	s.Disabled = r.boolValue(KeyDisabled, false)
	if !s.Disabled {
		for _, pattern := range r.unionValues(KeyDisabledBranch) {
			if matchesRefPattern(pattern, r.branch) {
				s.Disabled = true
				break
			}
		}
	}

	s.Warnings = r.warnings
	return s, nil
}

// parseGitBool parses boolean values in git-config style. The empty
// string (a key without a value) counts as true.
func parseGitBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value %q", s)
	}
}
