package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vitals-dev/vitals/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vitals",
		Short: "vitals - live codebase analysis and self-healing",
		Long: `vitals scans a JavaScript/TypeScript codebase, estimates structural health,
detects issues, and tracks fix candidates through a self-healing controller.`,
		Version: version.GetVersion(),
	}

	root.AddCommand(
		scanCmd(),
		checkCmd(),
		healCmd(),
		initCmd(),
		serveCmd(),
		versionCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exitErr *CheckExitError
		if errors.As(err, &exitErr) {
			// The gate prints its own report; only bare scan errors land here
			if exitErr.Message != "" {
				fmt.Fprintf(os.Stderr, "Error: %s\n", exitErr.Message)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the vitals version",
		Run: func(cmd *cobra.Command, args []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				fmt.Println(version.GetFullVersion())
				return
			}
			fmt.Printf("vitals version %s\n", version.GetVersion())
		},
	}

	cmd.Flags().BoolP("verbose", "v", false, "Include build and platform details")

	return cmd
}
