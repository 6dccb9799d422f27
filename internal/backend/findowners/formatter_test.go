package findowners

import (
	"reflect"
	"testing"

	"codeowners/internal/model"
)

func TestFormatCanonicalOrder(t *testing.T) {
	cfg := model.NewCodeOwnerConfigBuilder(testKey()).
		SetIgnoreParentCodeOwners(true).
		AddImport(model.NewCodeOwnerConfigReference(model.ImportModeAll, "/build/OWNERS")).
		AddCodeOwnerSet(model.NewCodeOwnerSet("zoe@example.com", "adam@example.com")).
		AddCodeOwnerSet(model.NewPerFileCodeOwnerSet([]string{"*.md"}, "docs@example.com")).
		Build()

	want := `set noparent
include build/OWNERS
adam@example.com
zoe@example.com
per-file *.md = docs@example.com
`
	if got := format(cfg); got != want {
		t.Errorf("format() = %q, want %q", got, want)
	}
}

func TestFormatEmptyConfig(t *testing.T) {
	cfg := model.NewCodeOwnerConfigBuilder(testKey()).Build()
	if got := format(cfg); got != "" {
		t.Errorf("format(empty) = %q, want empty string", got)
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	content := `set noparent
include other:stable:/OWNERS
file: docs/OWNERS
adam@example.com
zoe@example.com
per-file *.go,*.proto = backend@example.com
per-file BUILD = set noparent
`
	cfg := mustParse(t, content)
	formatted := format(cfg)
	reparsed, err := parse(testKey(), formatted)
	if err != nil {
		t.Fatalf("parse(format()) error = %v", err)
	}
	if !reflect.DeepEqual(cfg, reparsed) {
		t.Errorf("round trip mismatch:\nfirst:  %+v\nsecond: %+v\nformatted:\n%s", cfg, reparsed, formatted)
	}
}
