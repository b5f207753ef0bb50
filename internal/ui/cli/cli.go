package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"codequery/internal/core/errors"

	"github.com/spf13/cobra"
)

const versionString = "1.0.0"

type globalOptions struct {
	configPath  string
	verbose     bool
	format      string
	metricsAddr string
}

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	root := NewRootCommand(os.Stdout, os.Stderr, coreAppFactory{})
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitCode(err)
	}
	return 0
}

// exitCode maps usage and validation problems to 2, everything else to 1.
func exitCode(err error) int {
	if errors.IsCode(err, errors.CodeValidationError) || strings.Contains(err.Error(), "unknown command") {
		return 2
	}
	return 1
}

func NewRootCommand(stdout, stderr io.Writer, factory appFactory) *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "codequery",
		Short:         "Structural search and refactoring for Java code bases",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to config file (default ./"+configFileName()+" when present)")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	flags.StringVar(&opts.format, "format", "", "Output format: text, tsv or json (overrides config)")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address")

	root.AddCommand(newAnalyzeCmd(opts, factory))
	root.AddCommand(newSearchCmd(opts, factory))
	root.AddCommand(newRefactorCmd(opts, factory))
	root.AddCommand(newImpactCmd(opts, factory))
	root.AddCommand(newImportsCmd(opts, factory))
	root.AddCommand(newWatchCmd(opts, factory))
	root.AddCommand(newHistoryCmd(opts, factory))
	root.AddCommand(newCallersCmd(opts, factory))
	root.AddCommand(newVersionCmd())
	return root
}
