package store

import (
	"context"
	"errors"
	"sort"
	"testing"

	"codeowners/internal/model"
)

func TestMemStoreCommitAndRead(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	rev1 := s.Commit("server", "main", map[string][]byte{
		"OWNERS":     []byte("jane@example.com\n"),
		"foo/OWNERS": []byte("john@example.com\n"),
	})

	content, found, err := s.ReadBlob(ctx, "server", rev1, "foo/OWNERS")
	if err != nil || !found {
		t.Fatalf("ReadBlob() = %v, %v, %v", content, found, err)
	}
	if string(content) != "john@example.com\n" {
		t.Errorf("content = %q", content)
	}

	// Leading slashes are accepted on both write and read.
	_, found, err = s.ReadBlob(ctx, "server", rev1, "/OWNERS")
	if err != nil || !found {
		t.Fatalf("ReadBlob(/OWNERS) = %v, %v", found, err)
	}

	_, found, err = s.ReadBlob(ctx, "server", rev1, "bar/OWNERS")
	if err != nil {
		t.Fatalf("ReadBlob() error = %v", err)
	}
	if found {
		t.Error("found = true for absent blob")
	}
}

func TestMemStoreResolveRevision(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	rev := s.Commit("server", "main", map[string][]byte{"OWNERS": []byte("a@example.com\n")})

	tests := []struct {
		name    string
		project string
		ref     string
		want    Revision
		wantErr error
	}{
		{name: "short branch", project: "server", ref: "main", want: rev},
		{name: "full ref", project: "server", ref: "refs/heads/main", want: rev},
		{name: "revision passthrough", project: "server", ref: string(rev), want: rev},
		{name: "unknown project", project: "client", ref: "main", wantErr: ErrProjectNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ResolveRevision(ctx, tt.project, tt.ref)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ResolveRevision() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveRevision() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveRevision() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := s.ResolveRevision(ctx, "server", "release"); err == nil {
		t.Error("ResolveRevision(unknown branch) error = nil, want error")
	}
}

func TestMemStoreParentAndChangedPaths(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	rev1 := s.Commit("server", "main", map[string][]byte{
		"OWNERS":     []byte("a@example.com\n"),
		"foo/OWNERS": []byte("b@example.com\n"),
		"keep.txt":   []byte("x"),
	})
	rev2 := s.Commit("server", "main", map[string][]byte{
		"OWNERS":     []byte("a@example.com\nc@example.com\n"),
		"foo/OWNERS": nil,
		"bar/OWNERS": []byte("d@example.com\n"),
	})

	parent, ok, err := s.ParentRevision(ctx, "server", rev2)
	if err != nil || !ok || parent != rev1 {
		t.Fatalf("ParentRevision() = %q, %v, %v, want %q", parent, ok, err, rev1)
	}
	if _, ok, _ := s.ParentRevision(ctx, "server", rev1); ok {
		t.Error("root commit has a parent")
	}

	changed, err := s.ChangedPaths(ctx, "server", rev2)
	if err != nil {
		t.Fatalf("ChangedPaths() error = %v", err)
	}
	sort.Slice(changed, func(i, j int) bool {
		return changed[i].NewPath+changed[i].OldPath < changed[j].NewPath+changed[j].OldPath
	})

	want := []ChangedPath{
		{Status: model.FileStatusDeleted, OldPath: "foo/OWNERS"},
		{Status: model.FileStatusAdded, NewPath: "bar/OWNERS"},
		{Status: model.FileStatusModified, OldPath: "OWNERS", NewPath: "OWNERS"},
	}
	sort.Slice(want, func(i, j int) bool {
		return want[i].NewPath+want[i].OldPath < want[j].NewPath+want[j].OldPath
	})
	if len(changed) != len(want) {
		t.Fatalf("ChangedPaths() = %+v, want %+v", changed, want)
	}
	for i := range want {
		if changed[i] != want[i] {
			t.Errorf("changed[%d] = %+v, want %+v", i, changed[i], want[i])
		}
	}
}
