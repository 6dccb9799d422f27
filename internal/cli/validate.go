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
	"codeowners/internal/validation"
)

var validateOn string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate code owner config files touched by a revision",
	Long: `Validate the code owner config files a revision touches.

Checks cover syntax, path expressions, resolvability of owner emails and
resolvability of imports. Problems that already exist in the parent
revision's version of a file are reported as warnings instead of errors,
so unrelated changes are not blocked by problems they did not introduce.

Which validation policy applies is selected with --on:
  commit-received  policy for newly pushed commits (default)
  submit           policy for submit time

A dry-run policy reports findings but never rejects.

Exit codes:
	0 = no blocking errors
	1 = revision rejected (blocking errors found)
	3 = fatal error (validation did not run)

Examples:
  codeowners validate --projects-dir /srv/git --project server --revision a1b2c3 --accounts accounts.yaml
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

		ctx, cancel := context.WithTimeout(context.Background(), opts.Runtime.Timeout)
		defer cancel()

		sess, err := newSession(ctx, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		var policy model.ValidationPolicy
		switch validateOn {
		case "commit-received":
			policy = sess.snapshot.ValidationOnCommitReceived
		case "submit":
			policy = sess.snapshot.ValidationOnSubmit
		default:
			fmt.Fprintf(os.Stderr, "Error: unsupported --on value: %s (must be one of: commit-received, submit)\n", validateOn)
			os.Exit(3)
		}

		validator := &validation.Validator{
			Store:         sess.store,
			Backend:       sess.snapshot.Backend,
			FileExtension: sess.snapshot.FileExtension,
			Resolver:      sess.resolver,
			Policy:        policy,
		}
		result, err := validator.ValidateRevision(ctx, opts.Target.Project, opts.Target.Branch, sess.rev, model.AccountID(opts.Eval.User))
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
			Paths:   len(result.Messages),
		})
		for _, msg := range result.Messages {
			_ = outMgr.Write(output.Result{
				Path:    msg.Path,
				Status:  string(msg.Severity),
				Message: msg.Text,
			})
		}

		code := 0
		if result.Rejects() {
			code = 1
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

func init() {
	rootCmd.AddCommand(validateCmd)

	addTargetFlags(validateCmd)
	addEvalFlags(validateCmd)
	addOutputFlags(validateCmd)

	validateCmd.Flags().StringVar(&validateOn, "on", "commit-received", "Validation policy to apply: commit-received|submit (default: commit-received)")
	validateCmd.Flags().DurationVar(&opts.Runtime.Timeout, flags.FlagTimeout, opts.Runtime.Timeout, "Global timeout (default: 5m)")
}
