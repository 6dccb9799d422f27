package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"codeowners/internal/engine"
	"codeowners/internal/flags"
	"codeowners/internal/model"
	"codeowners/internal/output"
	"codeowners/internal/walker"
)

var ownersLimit int
var ownersCmd = &cobra.Command{
	Use:   "owners",
	Short: "List the code owners of paths",
	Long: `List the code owners of one or more paths in a branch.

For each path the folder hierarchy is walked from the path's folder up to
the repository root. Owners are ranked by proximity: owners defined
closer to the path come first.

Exit codes:
	0 = all paths resolved
	2 = some paths could not be resolved
	3 = fatal error

Examples:
  codeowners owners --projects-dir /srv/git --project server --path src/main.go --accounts accounts.yaml

  # Several paths, machine-readable
  codeowners owners --projects-dir /srv/git --project server --path src/main.go,docs/index.md --accounts accounts.yaml --no-console --emit ndjson
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
		if len(opts.Target.Paths) == 0 {
			fmt.Fprintln(os.Stderr, "Error: at least one --path must be provided")
			os.Exit(3)
		}

		ctx, cancel := context.WithTimeout(context.Background(), opts.Runtime.Timeout)
		defer cancel()

		sess, err := newSession(ctx, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		outMgr, err := engine.SetupOutputManager(opts, sess.snapshot.MaxPathsInChangeMessages)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output sinks: %v\n", err)
			os.Exit(3)
		}

		_ = outMgr.Write(output.Event{
			Type:    "run.started",
			Project: opts.Target.Project,
			Branch:  opts.Target.Branch,
			Paths:   len(opts.Target.Paths),
		})

		partial := false
		for _, path := range opts.Target.Paths {
			result, err := sess.walker.ResolvePathCodeOwners(ctx, opts.Target.Project, opts.Target.Branch, sess.rev, path, walker.Options{
				Requester:         model.AccountID(opts.Eval.User),
				EnforceVisibility: opts.Eval.EnforceVisibility,
			})
			if err != nil {
				_ = outMgr.Write(output.Result{
					Path:    model.NormalizeFilePath(path),
					Status:  "ERROR",
					Message: err.Error(),
				})
				partial = true
				continue
			}
			_ = outMgr.Write(ownersResult(path, result))
		}

		code := 0
		if partial {
			code = 2
		}
		_ = outMgr.Write(output.Event{Type: "run.finished", ExitCode: code})
		if err := outMgr.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing output sinks: %v\n", err)
			if code == 0 {
				code = 2
			}
		}
		os.Exit(code)
	},
}

func ownersResult(path string, result walker.Result) output.Result {
	out := output.Result{
		Path:   model.NormalizeFilePath(path),
		Status: "OWNERS",
	}
	if result.FallbackApplied {
		out.Message = "fallback applied"
	} else if !result.HasDefinedOwners {
		out.Message = "no owners defined"
	}
	owners := result.Owners
	if ownersLimit > 0 && len(owners) > ownersLimit {
		owners = owners[:ownersLimit]
	}
	for _, owner := range owners {
		out.Owners = append(out.Owners, string(owner.AccountID))
	}
	for _, issue := range result.Issues {
		out.Issues = append(out.Issues, issue.String())
	}
	return out
}

func init() {
	rootCmd.AddCommand(ownersCmd)

	addTargetFlags(ownersCmd)
	ownersCmd.Flags().StringSliceVar(&opts.Target.Paths, flags.FlagPath, nil, "Path to resolve owners for (repeatable; comma-separated accepted)")
	ownersCmd.Flags().IntVar(&ownersLimit, flags.FlagLimit, 0, "Maximum number of owners listed per path (0 = unlimited)")

	addEvalFlags(ownersCmd)
	addOutputFlags(ownersCmd)

	ownersCmd.Flags().IntVar(&opts.Runtime.Concurrency, flags.FlagConcurrency, 5, "Concurrent path evaluations (default: 5)")
	ownersCmd.Flags().DurationVar(&opts.Runtime.Timeout, flags.FlagTimeout, opts.Runtime.Timeout, "Global timeout (default: 5m)")
}
