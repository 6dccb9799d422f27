package cli

import (
	"fmt"
	"io"

	"codeowners/internal/backend"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var backendsListQuiet bool
var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "Manage and list config backends",
	Long: `Manage code owner config backends.

A backend defines the syntax of the per-folder code owner config files
and the file name they live under. Which backend a project uses is
configured via the backend key in code-owners.config.

Examples:
  # List all available backends
  codeowners backends list
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var backendsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available backends",
	Long: `List all config backends currently registered in this build.

Backends are sorted by backend ID.

Examples:
  codeowners backends list

Output:
  A vertical list of backends:
    ----------------------------------------
    BACKEND: {ID}
    ----------------------------------------
    Config file: {FILE NAME}
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, b := range backend.List() {
			if backendsListQuiet {
				fmt.Fprintln(cmd.OutOrStdout(), b.ID())
			} else {
				printBackend(cmd.OutOrStdout(), b)
			}
		}
		return nil
	},
}

var backendsShowCmd = &cobra.Command{
	Use:   "show [backend-id]",
	Short: "Show details of a specific backend",
	Long: `Show details of a specific backend by its ID.

Examples:
  codeowners backends show find-owners
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := backend.Get(args[0])
		if err != nil {
			return err
		}
		printBackend(cmd.OutOrStdout(), b)
		return nil
	},
}

func printBackend(w io.Writer, b backend.Backend) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "BACKEND: %s\n", b.ID())
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintf(w, "Config file: %s\n", b.FileName())
	if b.ID() == backend.DefaultID {
		fmt.Fprintln(w, "Default backend.")
	}
	fmt.Fprintln(w)
}

func init() {
	rootCmd.AddCommand(backendsCmd)
	backendsCmd.AddCommand(backendsListCmd)
	backendsListCmd.Flags().BoolVarP(&backendsListQuiet, "quiet", "q", false, "Only print backend IDs")
	backendsCmd.AddCommand(backendsShowCmd)
}
