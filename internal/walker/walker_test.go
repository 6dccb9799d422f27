package walker

import (
	"context"
	"errors"
	"testing"

	"codeowners/internal/backend"
	_ "codeowners/internal/backend/findowners"
	"codeowners/internal/identity"
	"codeowners/internal/model"
	"codeowners/internal/resolver"
	"codeowners/internal/store"
)

const accountsYAML = `
visibility: none
accounts:
  - id: "1000"
    email: jane@example.com
  - id: "1001"
    email: john@example.com
  - id: "1002"
    email: root@example.com
  - id: "1003"
    email: docs@example.com
  - id: "1004"
    email: builder@example.com
  - id: "1005"
    email: lib@example.com
`

type env struct {
	store  *store.MemStore
	walker *Walker
	rev    store.Revision
}

// newEnv builds a walker over an in-memory tree for project "server"
// branch "main".
func newEnv(t *testing.T, files map[string][]byte) *env {
	t.Helper()
	b, err := backend.Get(backend.DefaultID)
	if err != nil {
		t.Fatalf("backend.Get() error = %v", err)
	}
	dir, err := identity.ParseStaticDirectory([]byte(accountsYAML))
	if err != nil {
		t.Fatalf("ParseStaticDirectory() error = %v", err)
	}

	s := store.NewMemStore()
	rev := s.Commit("server", "main", files)
	return &env{
		store: s,
		walker: &Walker{
			Loader:   &store.ConfigFile{Store: s, Backend: b},
			Resolver: resolver.New(dir, nil),
		},
		rev: rev,
	}
}

func (e *env) resolve(t *testing.T, filePath string, opts Options) Result {
	t.Helper()
	result, err := e.walker.ResolvePathCodeOwners(context.Background(), "server", "main", e.rev, filePath, opts)
	if err != nil {
		t.Fatalf("ResolvePathCodeOwners(%q) error = %v", filePath, err)
	}
	return result
}

func ownerEmails(r Result) []string {
	var out []string
	for _, o := range r.Owners {
		out = append(out, o.Email)
	}
	return out
}

func assertOwners(t *testing.T, r Result, want ...string) {
	t.Helper()
	got := ownerEmails(r)
	if len(got) != len(want) {
		t.Fatalf("owners = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("owners = %v, want %v", got, want)
		}
	}
}

func TestHierarchyWalk(t *testing.T) {
	e := newEnv(t, map[string][]byte{
		"OWNERS":         []byte("root@example.com\n"),
		"foo/OWNERS":     []byte("john@example.com\n"),
		"foo/bar/OWNERS": []byte("jane@example.com\n"),
	})

	r := e.resolve(t, "/foo/bar/baz.go", Options{})
	assertOwners(t, r, "jane@example.com", "john@example.com", "root@example.com")

	wantDistances := []int{0, 1, 2}
	for i, o := range r.Owners {
		if o.Distance != wantDistances[i] {
			t.Errorf("owners[%d].Distance = %d, want %d", i, o.Distance, wantDistances[i])
		}
	}
	if !r.HasDefinedOwners {
		t.Error("HasDefinedOwners = false")
	}
	if r.FallbackApplied {
		t.Error("FallbackApplied = true")
	}
	if !r.OwnedBy("1000") || r.OwnedBy("1003") {
		t.Error("OwnedBy() wrong")
	}

	// Folders without a config contribute nothing but do not stop the walk.
	r = e.resolve(t, "/foo/other/deep/x.go", Options{})
	assertOwners(t, r, "john@example.com", "root@example.com")
}

func TestSetNoparentStopsWalk(t *testing.T) {
	e := newEnv(t, map[string][]byte{
		"OWNERS":     []byte("root@example.com\n"),
		"foo/OWNERS": []byte("set noparent\njane@example.com\n"),
	})

	r := e.resolve(t, "/foo/baz.go", Options{})
	assertOwners(t, r, "jane@example.com")
}

func TestPerFileOwners(t *testing.T) {
	e := newEnv(t, map[string][]byte{
		"OWNERS":     []byte("root@example.com\n"),
		"foo/OWNERS": []byte("john@example.com\nper-file *.md = docs@example.com\n"),
	})

	// john and docs share distance 0 and are ordered by account id.
	r := e.resolve(t, "/foo/readme.md", Options{})
	assertOwners(t, r, "john@example.com", "docs@example.com", "root@example.com")

	r = e.resolve(t, "/foo/main.go", Options{})
	assertOwners(t, r, "john@example.com", "root@example.com")

	// Per-file expressions match against the path relative to the config's
	// folder, so bare patterns apply to subfolders too.
	r = e.resolve(t, "/foo/sub/notes.md", Options{})
	assertOwners(t, r, "john@example.com", "docs@example.com", "root@example.com")
}

func TestPerFileSetNoparent(t *testing.T) {
	e := newEnv(t, map[string][]byte{
		"OWNERS":     []byte("root@example.com\n"),
		"foo/OWNERS": []byte("john@example.com\nper-file *.sec = set noparent\nper-file *.sec = jane@example.com\n"),
	})

	// Matching paths are owned exclusively by the matching per-file sets:
	// global owners of the same config and all parent owners are dropped.
	r := e.resolve(t, "/foo/creds.sec", Options{})
	assertOwners(t, r, "jane@example.com")

	r = e.resolve(t, "/foo/main.go", Options{})
	assertOwners(t, r, "john@example.com", "root@example.com")
}

func TestGlobalSetsOnlyImport(t *testing.T) {
	e := newEnv(t, map[string][]byte{
		"OWNERS":       []byte("root@example.com\n"),
		"foo/OWNERS":   []byte("file: /build/OWNERS\n"),
		"build/OWNERS": []byte("set noparent\nbuilder@example.com\nper-file *.md = docs@example.com\n"),
	})

	// Only the imported config's global sets apply; its per-file sets and
	// its ignore-parent flag do not.
	r := e.resolve(t, "/foo/readme.md", Options{})
	assertOwners(t, r, "builder@example.com", "root@example.com")
}

func TestModeAllImport(t *testing.T) {
	e := newEnv(t, map[string][]byte{
		"OWNERS":       []byte("root@example.com\n"),
		"foo/OWNERS":   []byte("include /build/OWNERS\n"),
		"build/OWNERS": []byte("set noparent\nbuilder@example.com\nper-file *.md = docs@example.com\n"),
	})

	// The imported config is evaluated as if located at the importing
	// folder: per-file sets match and the ignore-parent flag stops the
	// walk.
	r := e.resolve(t, "/foo/readme.md", Options{})
	assertOwners(t, r, "docs@example.com", "builder@example.com")

	r = e.resolve(t, "/foo/main.go", Options{})
	assertOwners(t, r, "builder@example.com")
}

func TestCrossProjectImport(t *testing.T) {
	e := newEnv(t, map[string][]byte{
		"foo/OWNERS": []byte("file: lib:main:/OWNERS\n"),
	})
	e.store.Commit("lib", "main", map[string][]byte{
		"OWNERS": []byte("lib@example.com\n"),
	})

	r := e.resolve(t, "/foo/x.go", Options{})
	assertOwners(t, r, "lib@example.com")
}

func TestImportCycleTerminates(t *testing.T) {
	e := newEnv(t, map[string][]byte{
		"OWNERS":   []byte("root@example.com\ninclude /a/OWNERS\n"),
		"a/OWNERS": []byte("jane@example.com\ninclude /OWNERS\n"),
	})

	r := e.resolve(t, "/a/x.go", Options{})
	assertOwners(t, r, "jane@example.com", "root@example.com")
	if len(r.Issues) != 0 {
		t.Errorf("Issues = %v, want none", r.Issues)
	}
}

func TestBrokenImports(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string][]byte
		wantKind IssueKind
	}{
		{
			name: "missing config",
			files: map[string][]byte{
				"foo/OWNERS": []byte("john@example.com\nfile: /nonexistent/OWNERS\n"),
			},
			wantKind: IssueMissingConfig,
		},
		{
			name: "missing project",
			files: map[string][]byte{
				"foo/OWNERS": []byte("john@example.com\nfile: ghost:/OWNERS\n"),
			},
			wantKind: IssueMissingProject,
		},
		{
			name: "missing branch",
			files: map[string][]byte{
				"foo/OWNERS": []byte("john@example.com\nfile: server:release:/OWNERS\n"),
			},
			wantKind: IssueMissingBranch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, tt.files)

			// Broken imports fail softly: resolved owners are kept and the
			// problem is reported as an issue.
			r := e.resolve(t, "/foo/x.go", Options{})
			assertOwners(t, r, "john@example.com")
			if len(r.Issues) != 1 || r.Issues[0].Kind != tt.wantKind {
				t.Errorf("Issues = %v, want one %s", r.Issues, tt.wantKind)
			}

			// Reject-on-unresolved mode turns the same condition into an
			// error.
			_, err := e.walker.ResolvePathCodeOwners(context.Background(), "server", "main", e.rev, "/foo/x.go", Options{RejectOnUnresolved: true})
			var rejected *RejectedImportError
			if !errors.As(err, &rejected) {
				t.Fatalf("error = %v, want *RejectedImportError", err)
			}
			if rejected.Issue.Kind != tt.wantKind {
				t.Errorf("rejected kind = %s, want %s", rejected.Issue.Kind, tt.wantKind)
			}
		})
	}
}

func TestFallbackAllUsers(t *testing.T) {
	e := newEnv(t, map[string][]byte{
		"README.md": []byte("no owners anywhere\n"),
	})
	e.walker.Fallback = model.FallbackAllUsers

	r := e.resolve(t, "/foo/x.go", Options{})
	if !r.FallbackApplied {
		t.Error("FallbackApplied = false")
	}
	if r.HasDefinedOwners {
		t.Error("HasDefinedOwners = true")
	}
	// All active accounts become owners.
	if len(r.Owners) != 6 {
		t.Errorf("owners = %v, want all active accounts", ownerEmails(r))
	}

	// The fallback does not apply when owners are defined but none
	// resolve.
	e = newEnv(t, map[string][]byte{
		"OWNERS": []byte("ghost@example.com\n"),
	})
	e.walker.Fallback = model.FallbackAllUsers
	r = e.resolve(t, "/x.go", Options{})
	if r.FallbackApplied {
		t.Error("FallbackApplied = true despite defined owners")
	}
	if !r.HasDefinedOwners || len(r.Owners) != 0 {
		t.Errorf("result = %+v, want defined but unresolved", r)
	}
}

func TestFallbackNone(t *testing.T) {
	e := newEnv(t, map[string][]byte{
		"README.md": []byte("no owners anywhere\n"),
	})

	r := e.resolve(t, "/foo/x.go", Options{})
	if len(r.Owners) != 0 || r.FallbackApplied || r.HasDefinedOwners {
		t.Errorf("result = %+v, want empty", r)
	}
}

func TestEnforceVisibility(t *testing.T) {
	e := newEnv(t, map[string][]byte{
		"OWNERS": []byte("jane@example.com\njohn@example.com\n"),
	})

	r := e.resolve(t, "/x.go", Options{Requester: "1000", EnforceVisibility: true})
	assertOwners(t, r, "jane@example.com")

	r = e.resolve(t, "/x.go", Options{Requester: "1000"})
	assertOwners(t, r, "jane@example.com", "john@example.com")
}

func TestAllUsersWildcardOwner(t *testing.T) {
	e := newEnv(t, map[string][]byte{
		"foo/OWNERS": []byte("*\n"),
	})

	r := e.resolve(t, "/foo/x.go", Options{})
	if !r.HasDefinedOwners {
		t.Error("HasDefinedOwners = false")
	}
	if len(r.Owners) != 6 {
		t.Errorf("owners = %v, want all active accounts", ownerEmails(r))
	}
}
