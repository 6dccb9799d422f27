package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spf13/cobra"

	"codeowners/internal/approval"
	"codeowners/internal/config"
	"codeowners/internal/engine"
	"codeowners/internal/flags"
	"codeowners/internal/model"
)

var opts = config.NewOptions()

const checkHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Change file:
  The change under review is described by a YAML file (--change):

    project: server
    branch: main
    uploader: jdoe
    reviewers: [mroe]
    votes:
      - {account: mroe, label: Code-Review, value: 2}
    files:
      - {status: M, new_path: src/main.go}
      - {status: R, old_path: docs/old.md, new_path: docs/new.md}

  project and branch default to --project and --branch when omitted.

Account directory:
  Owner emails are resolved against an account directory. Provide either
  a local YAML file (--accounts) or the member list of a GitHub
  organization (--github-org; authenticates via GITHUB_TOKEN or the gh
  CLI).

{{if .HasAvailableSubCommands}}Available Commands:
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.
{{end}}`

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate the code owner approval state of a change",
	Long: `Evaluate whether every path of a change has a sufficient code owner
approval.

Each changed path is resolved against the per-folder owner configs of the
target branch; renamed files require approval for both the old and the
new path. Override approvals, implicit approvals by the uploader and
exempted uploaders are honored.

Output:
	Console output is controlled by --console-format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write an aggregate JSON array or NDJSON stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --report: write a Markdown summary to a file
	- --no-console: suppress the console sink (use with --emit/--out for machine output)

	NDJSON mode emits one JSON object per line. Objects are lifecycle Events with a
	"type" field (run.started, path.result, run.finished). Path results are
	represented as an Event with type "path.result" and a nested "result" object.

Exit codes:
	0 = clean run, every path approved
	1 = unapproved paths remain
	2 = partial failure (some paths errored)
	3 = fatal error (evaluation did not run)

Examples:
  codeowners check --projects-dir /srv/git --project server --change change.yaml --accounts accounts.yaml

	# AI Agent: stream machine-readable events to stdout
	codeowners check --projects-dir /srv/git --project server --change change.yaml --accounts accounts.yaml --no-console --emit ndjson
`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 && cmd.Flags().NFlag() == 0 {
			_ = cmd.Help()
			return
		}

		if err := opts.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}
		if opts.Target.ChangeFile == "" {
			fmt.Fprintln(os.Stderr, "Error: --change must be provided")
			os.Exit(3)
		}

		ctx, cancel := context.WithTimeout(context.Background(), opts.Runtime.Timeout)
		defer cancel()

		change, err := loadChange(opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		sess, err := newSession(ctx, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		if sess.snapshot.Disabled {
			if !opts.Output.NoConsole {
				fmt.Fprintln(os.Stderr, "Code owners functionality is disabled for this branch.")
			}
			os.Exit(0)
		}

		outMgr, err := engine.SetupOutputManager(opts, sess.snapshot.MaxPathsInChangeMessages)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output sinks: %v\n", err)
			os.Exit(3)
		}

		evaluator := &approval.Evaluator{
			Walker:                           sess.walker,
			Snapshot:                         sess.snapshot,
			RequiredLabelIgnoresSelfApproval: opts.Eval.IgnoreSelfApproval,
		}
		eng := engine.NewEngine(evaluator, opts.Runtime.Concurrency)
		code := eng.Run(ctx, change, sess.rev, outMgr)
		if code == 1 && sess.snapshot.OverrideInfoURL != "" && !opts.Output.NoConsole {
			fmt.Fprintf(os.Stderr, "Unapproved paths can be overridden, see %s\n", sess.snapshot.OverrideInfoURL)
		}
		if err := outMgr.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing output sinks: %v\n", err)
			if code == 0 {
				code = 2
			}
		}
		os.Exit(code)
	},
}

func loadChange(opts *config.Options) (model.Change, error) {
	content, err := os.ReadFile(opts.Target.ChangeFile)
	if err != nil {
		return model.Change{}, fmt.Errorf("reading change file: %w", err)
	}
	var change model.Change
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&change); err != nil {
		return model.Change{}, fmt.Errorf("parsing change file %s: %w", opts.Target.ChangeFile, err)
	}
	if change.Project == "" {
		change.Project = opts.Target.Project
	}
	if change.Branch == "" {
		change.Branch = opts.Target.Branch
	}
	return change, nil
}

func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&opts.Target.ProjectsDir, flags.FlagProjectsDir, "", "Directory containing the project git repositories (one repository per project)")
	cmd.Flags().StringVar(&opts.Target.Project, flags.FlagProject, "", "Project to evaluate")
	cmd.Flags().StringVar(&opts.Target.Branch, flags.FlagBranch, "main", "Branch to evaluate (short name or full ref)")
	cmd.Flags().StringVar(&opts.Target.Revision, flags.FlagRevision, "", "Pin the evaluation to a specific revision (default: branch tip)")
}

func addEvalFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&opts.Eval.GlobalConfig, flags.FlagGlobalConfig, "", "Host-level code-owners.config file applied below all project configs")
	cmd.Flags().StringVar(&opts.Eval.Accounts, flags.FlagAccounts, "", "YAML account directory file")
	cmd.Flags().StringVar(&opts.Eval.GitHubOrg, flags.FlagGitHubOrg, "", "Resolve the account directory from the members of a GitHub organization")
	cmd.Flags().StringVar(&opts.Eval.User, flags.FlagUser, "", "Account the evaluation runs on behalf of (subject of visibility checks)")
	cmd.Flags().BoolVar(&opts.Eval.EnforceVisibility, flags.FlagEnforceVisibility, false, "Filter out owners the user cannot see (requires --user)")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&opts.Output.ConsoleFormat, flags.FlagConsoleFormat, "text", "Console output format: text|json|ndjson (default: text)")
	cmd.Flags().StringSliceVar(&opts.Output.ConsoleFilterStatus, flags.FlagConsoleFilterStatus, nil, "Filter console output by status (APPROVED, PENDING, INSUFFICIENT_REVIEWERS, ERROR). Comma-separated.")
	cmd.Flags().StringVar(&opts.Output.Report, flags.FlagReport, "", "Write a Markdown report to this path")
	cmd.Flags().StringVar(&opts.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	cmd.Flags().StringVar(&opts.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	cmd.Flags().StringSliceVar(&opts.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	cmd.Flags().BoolVar(&opts.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out/--report)")
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.SetHelpTemplate(checkHelpTemplate)

	addTargetFlags(checkCmd)
	checkCmd.Flags().StringVar(&opts.Target.ChangeFile, flags.FlagChange, "", "YAML file describing the change under review")

	addEvalFlags(checkCmd)
	checkCmd.Flags().BoolVar(&opts.Eval.IgnoreSelfApproval, flags.FlagIgnoreSelfApproval, false, "Do not count uploader votes and disable implicit approvals")

	addOutputFlags(checkCmd)

	// Runtime
	checkCmd.Flags().IntVar(&opts.Runtime.Concurrency, flags.FlagConcurrency, 5, "Concurrent path evaluations (default: 5)")
	checkCmd.Flags().DurationVar(&opts.Runtime.Timeout, flags.FlagTimeout, opts.Runtime.Timeout, "Global timeout (default: 5m)")
}
