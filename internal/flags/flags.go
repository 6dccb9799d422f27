package flags

// Package flags defines canonical CLI flag names shared across the CLI and
// engine. Keeping these as constants helps avoid drift between Cobra flag
// wiring and other code paths that need to reference flags.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&opts.Target.Project, flags.FlagProject, "", "...")
//	arg := "--" + flags.FlagProject
const (
	// Target
	FlagProjectsDir = "projects-dir"
	FlagProject     = "project"
	FlagBranch      = "branch"
	FlagRevision    = "revision"
	FlagChange      = "change"
	FlagPath        = "path"
	FlagLimit       = "limit"

	// Evaluation
	FlagGlobalConfig       = "global-config"
	FlagAccounts           = "accounts"
	FlagGitHubOrg          = "github-org"
	FlagUser               = "user"
	FlagEnforceVisibility  = "enforce-visibility"
	FlagIgnoreSelfApproval = "ignore-self-approval"

	// Output
	FlagConsoleFormat       = "console-format"
	FlagConsoleFilterStatus = "console-filter-status"
	FlagReport              = "report"
	FlagOut                 = "out"
	FlagOutFormat           = "out-format"
	FlagEmit                = "emit"
	FlagNoConsole           = "no-console"

	// Runtime
	FlagConcurrency = "concurrency"
	FlagTimeout     = "timeout"
)
