package output

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line), including:
// - run.started
// - path.result
// - run.finished
//
// JSON mode remains an aggregate of Result values.
type Event struct {
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
	*Result
	Project  string `json:"project,omitempty"`
	Branch   string `json:"branch,omitempty"`
	Paths    int    `json:"paths,omitempty"`
	ExitCode int    `json:"exit_code,omitempty"`
}

func eventFromResult(r Result) Event {
	return Event{Type: "path.result", Path: r.Path, Result: &r}
}
