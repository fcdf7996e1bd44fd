package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/colpir/pkg/logger"
	"github.com/ajitpratap0/colpir/pkg/pirerrors"

	// Register the source formats
	_ "github.com/ajitpratap0/colpir/pkg/ingest/sources/csv"
	_ "github.com/ajitpratap0/colpir/pkg/ingest/sources/parquet"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	err := newRootCmd(os.Stdout).Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "colpir:", err)
	}
	_ = logger.Sync()
	os.Exit(exitCode(err))
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "colpir",
		Short: "colpir - private queries over a numeric column",
		Long: `colpir loads one numeric column from a CSV or Parquet file, quantizes it
to a d-bit database and runs a single-server PIR session over it: offline
setup, an encrypted query for one index, the server answer, an optional
proof of correct evaluation, and client-side recovery.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return pirerrors.Wrap(err, pirerrors.ErrorTypeConfig, "invalid flags")
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "colpir v%s\n", version)
			fmt.Fprintf(w, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(w, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})
	root.AddCommand(newRunCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newGenerateCmd())
	root.AddCommand(newConfigCmd())
	return root
}

// exitCode maps an error to the process exit status. A verification failure
// outranks a mismatch when both are reported.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	for _, c := range []struct {
		typ  pirerrors.ErrorType
		code int
	}{
		{pirerrors.ErrorTypeVerification, 6},
		{pirerrors.ErrorTypeMismatch, 7},
	} {
		if pirerrors.IsType(err, c.typ) {
			return c.code
		}
	}

	switch pirerrors.TypeOf(err) {
	case pirerrors.ErrorTypeInput:
		return 2
	case pirerrors.ErrorTypeValidation:
		return 3
	case pirerrors.ErrorTypeStructural:
		return 4
	case pirerrors.ErrorTypeProtocol:
		return 5
	case pirerrors.ErrorTypeConfig:
		return 8
	default:
		return 1
	}
}
