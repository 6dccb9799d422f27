package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"codeowners/internal/backend"
	_ "codeowners/internal/backend/findowners"
	_ "codeowners/internal/backend/owneryaml"
	"codeowners/internal/model"
	"codeowners/internal/store"
)

// newLoader builds a loader over an in-memory store with the given
// per-project code-owners.config contents.
func newLoader(configs map[string]string) *Loader {
	s := store.NewMemStore()
	for project, content := range configs {
		s.Commit(project, MetaConfigRef, map[string][]byte{
			ProjectConfigFile: []byte(content),
		})
	}
	return &Loader{Store: s}
}

func mustSnapshot(t *testing.T, l *Loader, project, branch string) *Snapshot {
	t.Helper()
	s, err := l.Snapshot(context.Background(), project, branch)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	return s
}

func TestSnapshotDefaults(t *testing.T) {
	s := mustSnapshot(t, newLoader(nil), "server", "main")

	if s.Backend.ID() != backend.DefaultID {
		t.Errorf("Backend = %s, want %s", s.Backend.ID(), backend.DefaultID)
	}
	if s.RequiredApproval != DefaultRequiredApproval {
		t.Errorf("RequiredApproval = %+v, want %+v", s.RequiredApproval, DefaultRequiredApproval)
	}
	if s.FallbackCodeOwners != model.FallbackNone {
		t.Errorf("FallbackCodeOwners = %s, want NONE", s.FallbackCodeOwners)
	}
	if s.MergeCommitStrategy != model.MergeAllChangedFiles {
		t.Errorf("MergeCommitStrategy = %s", s.MergeCommitStrategy)
	}
	if s.ValidationOnCommitReceived != model.ValidationTrue || s.ValidationOnSubmit != model.ValidationTrue {
		t.Errorf("validation policies = %s, %s, want true", s.ValidationOnCommitReceived, s.ValidationOnSubmit)
	}
	if !s.RejectNonResolvableCodeOwners || !s.RejectNonResolvableImports {
		t.Error("reject flags default to false, want true")
	}
	if s.MaxPathsInChangeMessages != DefaultMaxPathsInChangeMessages {
		t.Errorf("MaxPathsInChangeMessages = %d", s.MaxPathsInChangeMessages)
	}
	if s.Disabled || s.ReadOnly || s.EnableImplicitApprovals {
		t.Error("boolean tunables not defaulted to false")
	}
	if s.Branch != "refs/heads/main" {
		t.Errorf("Branch = %q, want full ref", s.Branch)
	}
}

func TestSnapshotBranchPrecedence(t *testing.T) {
	l := newLoader(map[string]string{
		"server": `
[codeOwners]
	requiredApproval = Code-Review+1
	fileExtension = base
[codeOwners "main"]
	requiredApproval = Code-Review+2
[codeOwners "refs/heads/main"]
	requiredApproval = Owners-Review+1
`,
	})

	// The exact full ref section wins over the short name section, which
	// wins over the project-level section.
	s := mustSnapshot(t, l, "server", "main")
	if s.RequiredApproval.Label != "Owners-Review" || s.RequiredApproval.Value != 1 {
		t.Errorf("RequiredApproval = %+v, want Owners-Review+1", s.RequiredApproval)
	}

	s = mustSnapshot(t, l, "server", "dev")
	if s.RequiredApproval.Label != "Code-Review" || s.RequiredApproval.Value != 1 {
		t.Errorf("RequiredApproval = %+v, want Code-Review+1", s.RequiredApproval)
	}

	// Project-level values still apply when the branch section does not
	// define them.
	if s.FileExtension != "base" {
		t.Errorf("FileExtension = %q, want base", s.FileExtension)
	}
}

func TestSnapshotInheritance(t *testing.T) {
	l := newLoader(map[string]string{
		"child": `
[codeOwners]
	inheritFrom = parent
	maxPathsInChangeMessages = 5
	globalCodeOwner = child-global@example.com
`,
		"parent": `
[codeOwners]
	fallbackCodeOwners = ALL_USERS
	maxPathsInChangeMessages = 10
	globalCodeOwner = parent-global@example.com
	exemptedAccount = 1500
`,
	})

	s := mustSnapshot(t, l, "child", "main")

	// Single-valued: the child wins, undefined values fall through to the
	// parent.
	if s.MaxPathsInChangeMessages != 5 {
		t.Errorf("MaxPathsInChangeMessages = %d, want 5", s.MaxPathsInChangeMessages)
	}
	if s.FallbackCodeOwners != model.FallbackAllUsers {
		t.Errorf("FallbackCodeOwners = %s, want ALL_USERS", s.FallbackCodeOwners)
	}

	// Multi-valued: union over the chain, child values first.
	wantGlobal := []string{"child-global@example.com", "parent-global@example.com"}
	if len(s.GlobalCodeOwners) != 2 || s.GlobalCodeOwners[0] != wantGlobal[0] || s.GlobalCodeOwners[1] != wantGlobal[1] {
		t.Errorf("GlobalCodeOwners = %v, want %v", s.GlobalCodeOwners, wantGlobal)
	}
	if len(s.ExemptedAccounts) != 1 || s.ExemptedAccounts[0] != "1500" {
		t.Errorf("ExemptedAccounts = %v", s.ExemptedAccounts)
	}
	if !s.IsExempted("1500") || s.IsExempted("1501") {
		t.Error("IsExempted() wrong")
	}
}

func TestSnapshotInheritanceCycle(t *testing.T) {
	l := newLoader(map[string]string{
		"a": "[codeOwners]\n\tinheritFrom = b\n\tmaxPathsInChangeMessages = 5\n",
		"b": "[codeOwners]\n\tinheritFrom = a\n\tfallbackCodeOwners = ALL_USERS\n",
	})

	s := mustSnapshot(t, l, "a", "main")
	if s.MaxPathsInChangeMessages != 5 || s.FallbackCodeOwners != model.FallbackAllUsers {
		t.Errorf("snapshot = %+v, want both projects applied once", s)
	}
}

func TestSnapshotGlobalConfig(t *testing.T) {
	globalPath := filepath.Join(t.TempDir(), "code-owners.config")
	global := "[codeOwners]\n\tallowedEmailDomain = example.com\n\tfallbackCodeOwners = ALL_USERS\n"
	if err := os.WriteFile(globalPath, []byte(global), 0o644); err != nil {
		t.Fatal(err)
	}

	l := newLoader(map[string]string{
		"server": "[codeOwners]\n\tfallbackCodeOwners = NONE\n",
	})
	l.GlobalPath = globalPath

	s := mustSnapshot(t, l, "server", "main")

	// The project chain wins over the global config; global-only values
	// still apply.
	if s.FallbackCodeOwners != model.FallbackNone {
		t.Errorf("FallbackCodeOwners = %s, want NONE", s.FallbackCodeOwners)
	}
	if len(s.AllowedEmailDomains) != 1 || s.AllowedEmailDomains[0] != "example.com" {
		t.Errorf("AllowedEmailDomains = %v", s.AllowedEmailDomains)
	}
}

func TestSnapshotInvalidEnumFallsThrough(t *testing.T) {
	l := newLoader(map[string]string{
		"child":  "[codeOwners]\n\tinheritFrom = parent\n\tfallbackCodeOwners = EVERYONE\n",
		"parent": "[codeOwners]\n\tfallbackCodeOwners = ALL_USERS\n",
	})

	s := mustSnapshot(t, l, "child", "main")
	if s.FallbackCodeOwners != model.FallbackAllUsers {
		t.Errorf("FallbackCodeOwners = %s, want parent value", s.FallbackCodeOwners)
	}
	if len(s.Warnings) == 0 {
		t.Error("Warnings empty, want invalid value recorded")
	}
}

func TestSnapshotHardFailures(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{name: "unknown backend", config: "[codeOwners]\n\tbackend = proto-owners\n"},
		{name: "malformed required approval", config: "[codeOwners]\n\trequiredApproval = Code-Review\n"},
		{name: "malformed override approval", config: "[codeOwners]\n\toverrideApproval = Owners-Override+x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLoader(map[string]string{"server": tt.config})
			_, err := l.Snapshot(context.Background(), "server", "main")
			var invalid *InvalidPluginConfigurationError
			if !errors.As(err, &invalid) {
				t.Errorf("Snapshot() error = %v, want *InvalidPluginConfigurationError", err)
			}
		})
	}
}

func TestSnapshotBackendSelection(t *testing.T) {
	l := newLoader(map[string]string{
		"server": "[codeOwners]\n\tbackend = owners-yaml\n",
	})
	s := mustSnapshot(t, l, "server", "main")
	if s.Backend.ID() != "owners-yaml" {
		t.Errorf("Backend = %s, want owners-yaml", s.Backend.ID())
	}
}

func TestSnapshotDisabled(t *testing.T) {
	tests := []struct {
		name   string
		config string
		branch string
		want   bool
	}{
		{name: "disabled flag", config: "[codeOwners]\n\tdisabled = true\n", branch: "main", want: true},
		{name: "disabled branch match", config: "[codeOwners]\n\tdisabledBranch = refs/heads/xp/*\n", branch: "xp/test", want: true},
		{name: "disabled branch no match", config: "[codeOwners]\n\tdisabledBranch = refs/heads/xp/*\n", branch: "main", want: false},
		{name: "disabled branch regex", config: "[codeOwners]\n\tdisabledBranch = ^release-.*\n", branch: "release-1.0", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLoader(map[string]string{"server": tt.config})
			s := mustSnapshot(t, l, "server", tt.branch)
			if s.Disabled != tt.want {
				t.Errorf("Disabled = %v, want %v", s.Disabled, tt.want)
			}
		})
	}
}

func TestSnapshotOverrideApprovalsSorted(t *testing.T) {
	l := newLoader(map[string]string{
		"server": "[codeOwners]\n\toverrideApproval = Owners-Override+2\n\toverrideApproval = Owners-Override+1\n",
	})
	s := mustSnapshot(t, l, "server", "main")
	if len(s.OverrideApprovals) != 2 {
		t.Fatalf("OverrideApprovals = %+v, want 2", s.OverrideApprovals)
	}
	if s.OverrideApprovals[0].Value != 1 || s.OverrideApprovals[1].Value != 2 {
		t.Errorf("OverrideApprovals = %+v, want ascending by value", s.OverrideApprovals)
	}
}

func TestMatchesRefPattern(t *testing.T) {
	tests := []struct {
		pattern string
		branch  string
		want    bool
	}{
		{"refs/heads/main", "main", true},
		{"main", "main", true},
		{"main", "maintenance", false},
		{"refs/heads/release/*", "release/1.0", true},
		{"refs/heads/release/*", "main", false},
		{"^release-\\d+", "release-42", true},
		{"^release-\\d+", "release-x", false},
		{"^[invalid", "main", false},
	}
	for _, tt := range tests {
		if got := matchesRefPattern(tt.pattern, tt.branch); got != tt.want {
			t.Errorf("matchesRefPattern(%q, %q) = %v, want %v", tt.pattern, tt.branch, got, tt.want)
		}
	}
}

func TestParseGitBool(t *testing.T) {
	trueValues := []string{"", "true", "YES", "on", "1"}
	for _, v := range trueValues {
		if b, err := parseGitBool(v); err != nil || !b {
			t.Errorf("parseGitBool(%q) = %v, %v, want true", v, b, err)
		}
	}
	falseValues := []string{"false", "NO", "off", "0"}
	for _, v := range falseValues {
		if b, err := parseGitBool(v); err != nil || b {
			t.Errorf("parseGitBool(%q) = %v, %v, want false", v, b, err)
		}
	}
	if _, err := parseGitBool("maybe"); err == nil {
		t.Error("parseGitBool(maybe) error = nil, want error")
	}
}
