package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// ReportSink writes a Markdown summary of one evaluation run.
//
// MaxPaths, when positive, caps the number of rows in the path table;
// remaining paths are summarized in a trailing line.
type ReportSink struct {
	path         string
	MaxPaths     int
	file         *os.File
	mu           sync.Mutex
	results      []Result
	project      string
	branch       string
	exitCode     int
	haveExitCode bool
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	return &ReportSink{
		path: path,
		file: f,
	}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case Result:
		s.results = append(s.results, t)
	case Event:
		if t.Project != "" {
			s.project = t.Project
		}
		if t.Branch != "" {
			s.branch = t.Branch
		}
		if t.Type == "run.finished" {
			s.exitCode = t.ExitCode
			s.haveExitCode = true
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]Result, len(s.results))
	copy(results, s.results)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	counts := make(map[string]int)
	var issues []string
	for _, r := range results {
		counts[r.Status]++
		for _, issue := range r.Issues {
			issues = append(issues, fmt.Sprintf("%s: %s", r.Path, issue))
		}
	}

	var b strings.Builder
	b.WriteString("# Code Owner Evaluation Report\n\n")
	if s.project != "" {
		b.WriteString(fmt.Sprintf("Project: `%s`", s.project))
		if s.branch != "" {
			b.WriteString(fmt.Sprintf(" (branch `%s`)", s.branch))
		}
		b.WriteString("\n\n")
	}

	b.WriteString("## Summary\n\n")
	b.WriteString("| Status | Paths |\n")
	b.WriteString("| --- | ---: |\n")
	var statuses []string
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		b.WriteString(fmt.Sprintf("| %s | %d |\n", status, counts[status]))
	}
	b.WriteString("\n")
	if s.haveExitCode {
		b.WriteString(fmt.Sprintf("Exit code: %d\n\n", s.exitCode))
	}

	b.WriteString("## Paths\n\n")
	if len(results) == 0 {
		b.WriteString("- None\n\n")
	} else {
		listed := results
		omitted := 0
		if s.MaxPaths > 0 && len(listed) > s.MaxPaths {
			omitted = len(listed) - s.MaxPaths
			listed = listed[:s.MaxPaths]
		}
		b.WriteString("| Path | Status | Detail |\n")
		b.WriteString("| --- | --- | --- |\n")
		for _, r := range listed {
			detail := r.Message
			if len(r.Owners) > 0 {
				ownerList := strings.Join(r.Owners, ", ")
				if detail != "" {
					detail += "; "
				}
				detail += "owners: " + ownerList
			}
			b.WriteString(fmt.Sprintf("| `%s` | %s | %s |\n", r.Path, r.Status, detail))
		}
		if omitted > 0 {
			b.WriteString(fmt.Sprintf("\n... and %d more paths\n", omitted))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Issues\n\n")
	if len(issues) == 0 {
		b.WriteString("- None\n")
	} else {
		sort.Strings(issues)
		for _, issue := range issues {
			b.WriteString(fmt.Sprintf("- %s\n", issue))
		}
	}

	if _, err := s.file.WriteString(b.String()); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}
