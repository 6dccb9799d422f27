package findowners

import (
	"reflect"
	"testing"

	"codeowners/internal/model"
)

func testKey() model.Key {
	return model.NewKey("server", "main", "/foo/")
}

func mustParse(t *testing.T, content string) model.CodeOwnerConfig {
	t.Helper()
	cfg, err := parse(testKey(), content)
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}
	return cfg
}

func globalEmails(cfg model.CodeOwnerConfig) []string {
	var out []string
	for _, set := range cfg.GlobalCodeOwnerSets() {
		for _, o := range set.CodeOwners {
			out = append(out, o.Email)
		}
	}
	return out
}

func TestParseOwners(t *testing.T) {
	cfg := mustParse(t, "jane@example.com\njohn@example.com\n")
	want := []string{"jane@example.com", "john@example.com"}
	if got := globalEmails(cfg); !reflect.DeepEqual(got, want) {
		t.Errorf("owners = %v, want %v", got, want)
	}
}

func TestParseSkipsInvalidLines(t *testing.T) {
	content := `jane@example.com
not an email
@example.com
jane@
two@at@signs
john@example.com
`
	cfg := mustParse(t, content)
	want := []string{"jane@example.com", "john@example.com"}
	if got := globalEmails(cfg); !reflect.DeepEqual(got, want) {
		t.Errorf("owners = %v, want %v", got, want)
	}
}

func TestParseComments(t *testing.T) {
	content := `# full line comment
jane@example.com # inline comment
  # indented comment
john@example.com#no space
`
	cfg := mustParse(t, content)
	want := []string{"jane@example.com", "john@example.com"}
	if got := globalEmails(cfg); !reflect.DeepEqual(got, want) {
		t.Errorf("owners = %v, want %v", got, want)
	}
}

func TestParseAllUsersWildcard(t *testing.T) {
	cfg := mustParse(t, "*\n")
	if got := globalEmails(cfg); !reflect.DeepEqual(got, []string{"*"}) {
		t.Errorf("owners = %v, want [*]", got)
	}
}

func TestParseSetNoparent(t *testing.T) {
	cfg := mustParse(t, "set noparent\njane@example.com\n")
	if !cfg.IgnoreParentCodeOwners {
		t.Error("IgnoreParentCodeOwners = false, want true")
	}

	// Repeating the directive has no further effect.
	cfg = mustParse(t, "set noparent\nset noparent\n")
	if !cfg.IgnoreParentCodeOwners {
		t.Error("IgnoreParentCodeOwners = false, want true")
	}
}

func TestParseImports(t *testing.T) {
	content := `include /build/OWNERS
include other:/OWNERS
include other:stable:/OWNERS
file: /docs/OWNERS
`
	cfg := mustParse(t, content)
	want := []model.CodeOwnerConfigReference{
		{FilePath: "/build/OWNERS", Mode: model.ImportModeAll},
		{Project: "other", FilePath: "/OWNERS", Mode: model.ImportModeAll},
		{Project: "other", Branch: "refs/heads/stable", FilePath: "/OWNERS", Mode: model.ImportModeAll},
		{FilePath: "/docs/OWNERS", Mode: model.ImportModeGlobalCodeOwnerSetsOnly},
	}
	if !reflect.DeepEqual(cfg.Imports, want) {
		t.Errorf("Imports = %v, want %v", cfg.Imports, want)
	}
}

func TestParsePerFile(t *testing.T) {
	content := `jane@example.com
per-file *.md = docs@example.com
per-file *.go,*.proto = backend@example.com,infra@example.com
per-file BUILD = set noparent
per-file *.sql = file: /db/OWNERS
per-file = missing exprs
per-file *.txt = not an email
`
	cfg := mustParse(t, content)
	sets := cfg.PerFileCodeOwnerSets()
	if len(sets) != 4 {
		t.Fatalf("PerFileCodeOwnerSets() count = %d, want 4: %v", len(sets), sets)
	}

	md := sets[0]
	if !reflect.DeepEqual(md.PathExpressions, []string{"*.md"}) {
		t.Errorf("md exprs = %v", md.PathExpressions)
	}
	if !reflect.DeepEqual(md.CodeOwners, []model.CodeOwnerReference{{Email: "docs@example.com"}}) {
		t.Errorf("md owners = %v", md.CodeOwners)
	}

	multi := sets[1]
	if !reflect.DeepEqual(multi.PathExpressions, []string{"*.go", "*.proto"}) {
		t.Errorf("multi exprs = %v", multi.PathExpressions)
	}
	if len(multi.CodeOwners) != 2 {
		t.Errorf("multi owners = %v, want 2", multi.CodeOwners)
	}

	noparent := sets[2]
	if !noparent.IgnoreGlobalAndParentCodeOwners {
		t.Error("BUILD set: IgnoreGlobalAndParentCodeOwners = false, want true")
	}
	if len(noparent.CodeOwners) != 0 {
		t.Errorf("BUILD set owners = %v, want none", noparent.CodeOwners)
	}

	imp := sets[3]
	wantImports := []model.CodeOwnerConfigReference{
		{FilePath: "/db/OWNERS", Mode: model.ImportModeGlobalCodeOwnerSetsOnly},
	}
	if !reflect.DeepEqual(imp.Imports, wantImports) {
		t.Errorf("sql set imports = %v, want %v", imp.Imports, wantImports)
	}
}

func TestParseEmpty(t *testing.T) {
	cfg := mustParse(t, "")
	if !cfg.IsEmpty() {
		t.Errorf("parse(\"\") = %v, want empty config", cfg)
	}
}

func TestParseCRLF(t *testing.T) {
	cfg := mustParse(t, "jane@example.com\r\njohn@example.com\r\n")
	want := []string{"jane@example.com", "john@example.com"}
	if got := globalEmails(cfg); !reflect.DeepEqual(got, want) {
		t.Errorf("owners = %v, want %v", got, want)
	}
}

func TestIsCodeOwnerConfigFile(t *testing.T) {
	b := findOwnersBackend{}
	tests := []struct {
		fileName  string
		extension string
		want      bool
	}{
		{"OWNERS", "", true},
		{"OWNERS.custom", "custom", true},
		{"OWNERS.custom", "", false},
		{"OWNERS", "custom", false},
		{"owners", "", false},
	}
	for _, tt := range tests {
		if got := b.IsCodeOwnerConfigFile(tt.fileName, tt.extension); got != tt.want {
			t.Errorf("IsCodeOwnerConfigFile(%q, %q) = %v, want %v", tt.fileName, tt.extension, got, tt.want)
		}
	}
}
