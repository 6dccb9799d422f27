package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewEmitSink(t *testing.T) {
	if _, err := NewEmitSink(nil, "json"); err == nil {
		t.Error("NewEmitSink(nil writer) error = nil, want error")
	}
	if _, err := NewEmitSink(&bytes.Buffer{}, "yaml"); err == nil {
		t.Error("NewEmitSink(yaml) error = nil, want error")
	}
}

func TestEmitSinkJSONAggregates(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewEmitSink(&buf, "json")
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Write(Event{Type: "run.started"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(Result{Path: "/a.go", Status: "APPROVED"}); err != nil {
		t.Fatal(err)
	}

	// Nothing is written until Close.
	if buf.Len() != 0 {
		t.Errorf("JSON emit wrote before Close: %q", buf.String())
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	var got []Result
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(got) != 1 || got[0].Path != "/a.go" {
		t.Errorf("decoded = %+v", got)
	}
}

func TestEmitSinkNDJSONStreams(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewEmitSink(&buf, "ndjson")
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Write(Result{Path: "/a.go", Status: "PENDING"}); err != nil {
		t.Fatal(err)
	}

	// NDJSON streams immediately.
	if !strings.Contains(buf.String(), `"path.result"`) {
		t.Errorf("no streamed event: %q", buf.String())
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}
