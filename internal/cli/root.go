package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "codeowners",
	Short: "Evaluate, list and validate code owners of git repositories",
	Long: `codeowners resolves the code owners of changed paths, evaluates whether
a change has collected sufficient code owner approvals, and validates
code owner config files.

Code owners are defined in per-folder config files (OWNERS by default)
inside the repositories themselves. Settings such as the backend, the
required approval and fallback policies live in a code-owners.config file
on each project's refs/meta/config branch.

Examples:
	# Show available commands and global flags
	codeowners --help

	# Evaluate the approval state of a change
	codeowners check --projects-dir /srv/git --project server --change change.yaml

	# List owners of a path
	codeowners owners --projects-dir /srv/git --project server --path src/main.go

	# List config backends
	codeowners backends list

	# Print build info
	codeowners version

Output:
	By default, commands write human-readable output to stdout.
	Some commands support structured output via emitter flags (see each command's --help).`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&opts.Runtime.Verbose, "verbose", false, "Enable verbose logging (prints account directory lookups and full error details)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
