package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Options carries the CLI configuration of one invocation.
type Options struct {
	Target  Target
	Eval    Eval
	Output  Output
	Runtime Runtime
}

type Target struct {
	// ProjectsDir is the directory containing the project git repositories,
	// one repository per project name (see --projects-dir).
	ProjectsDir string

	// Project is the name of the project to evaluate (see --project).
	Project string

	// Branch is the branch to evaluate, as short name or full ref
	// (see --branch).
	Branch string

	// Revision pins the evaluation to a specific revision (see --revision).
	// Empty means the branch tip.
	Revision string

	// ChangeFile is a YAML file describing the change under review:
	// uploader, reviewers, votes and changed files (see --change).
	ChangeFile string

	// Paths is an explicit list of paths to resolve owners for
	// (see --path). Values may be provided as repeated flags and/or
	// comma-separated lists.
	Paths []string
}

type Eval struct {
	// GlobalConfig is the path of a host-level code-owners.config file
	// applied below all project configs (see --global-config).
	GlobalConfig string

	// Accounts is a YAML account directory file (see --accounts).
	Accounts string

	// GitHubOrg resolves the account directory from the members of a
	// GitHub organization instead of a local file (see --github-org).
	GitHubOrg string

	// User is the account the evaluation runs on behalf of; it is the
	// subject of visibility checks (see --user).
	User string

	// EnforceVisibility filters out owners the user cannot see
	// (see --enforce-visibility).
	EnforceVisibility bool

	// IgnoreSelfApproval mirrors the required label's ignoreSelfApproval
	// setting: uploader votes do not count and implicit approvals are off
	// (see --ignore-self-approval).
	IgnoreSelfApproval bool
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// ConsoleFilterStatus filters console output by result status (see --console-filter-status).
	// Allowed values: APPROVED, PENDING, INSUFFICIENT_REVIEWERS, ERROR, WARNING.
	ConsoleFilterStatus []string

	// Report writes a Markdown report to this path (see --report).
	Report string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string

	// Emit writes an additional structured event stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string

	// NoConsole suppresses the console sink (see --no-console).
	// Use with --emit/--out/--report for machine-readable output.
	NoConsole bool
}

type Runtime struct {
	// Concurrency controls parallelism for path evaluation (see --concurrency).
	// Must be >= 1.
	Concurrency int

	// Timeout is the global timeout for the run (see --timeout).
	// Must be > 0.
	Timeout time.Duration

	// Verbose enables more detailed diagnostics.
	Verbose bool
}

func NewOptions() *Options {
	return &Options{
		Target: Target{
			Branch: "main",
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Concurrency: 5,
			Timeout:     5 * time.Minute,
		},
	}
}

func (o *Options) Validate() error {
	// Normalize comma-delimited list inputs.
	o.Target.Paths = splitCommaList(o.Target.Paths)
	o.Output.ConsoleFilterStatus = splitCommaList(o.Output.ConsoleFilterStatus)

	// Target validation
	if o.Target.ProjectsDir == "" {
		return errors.New("--projects-dir must be provided")
	}
	if o.Target.Project == "" {
		return errors.New("--project must be provided")
	}
	if o.Target.Branch == "" {
		o.Target.Branch = "main"
	}

	// Eval validation
	if o.Eval.Accounts != "" && o.Eval.GitHubOrg != "" {
		return errors.New("--accounts and --github-org are mutually exclusive")
	}
	if o.Eval.EnforceVisibility && o.Eval.User == "" {
		return errors.New("--enforce-visibility requires --user")
	}

	// Output validation
	o.Output.ConsoleFormat = normalizeEnumValue(o.Output.ConsoleFormat)
	if o.Output.ConsoleFormat == "" {
		o.Output.ConsoleFormat = "text"
	}
	if o.Output.ConsoleFormat != "text" && o.Output.ConsoleFormat != "json" && o.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", o.Output.ConsoleFormat)
	}

	for _, emit := range o.Output.Emit {
		v := normalizeEnumValue(emit)
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", emit)
		}
	}

	// Runtime validation
	if o.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if o.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}

	if o.Output.Out != "" {
		o.Output.OutFormat = normalizeEnumValue(o.Output.OutFormat)
		if o.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(o.Output.Out))
			switch ext {
			case ".json":
				o.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				o.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else {
			if o.Output.OutFormat != "json" && o.Output.OutFormat != "ndjson" {
				return fmt.Errorf("unsupported output format: %s", o.Output.OutFormat)
			}
		}
	}

	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
