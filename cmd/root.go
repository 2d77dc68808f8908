package cmd

import (
	"fmt"

	logger "github.com/PolarWolf314/lockbox/internal/logging"
	"github.com/PolarWolf314/lockbox/internal/ui"
	"github.com/PolarWolf314/lockbox/internal/utils"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	RootCmd = &cobra.Command{
		Use:   "lockbox",
		Short: "Store files encrypted at rest and share them without sharing keys",
		Long: `lockbox encrypts files with a fresh key per file and lets the owner
share them with other users of the workspace.

Every file key is wrapped with the owner's RSA public key. Granting access
unwraps it with the owner's passphrase-protected private key and wraps it
again for the recipient, so neither the file key nor any private key is
ever stored or sent in the clear.

Usage:
  lockbox <command> [flags]

Run 'lockbox help <command>' for more details on a specific command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing %s with verbose=%t, debug=%t", cmd.CommandPath(), verbose, debug)
		},
		Run: func(cmd *cobra.Command, args []string) {
			if utils.IsStdoutTerminal() {
				figure.NewColorFigure("lockbox", "alligator2", "green", true).Print()
				fmt.Println()
			}
			fmt.Println("Welcome to lockbox! Run " + ui.Code.Sprint("lockbox --help") + " to see available commands.")
		},
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(IdentityCmd)
	RootCmd.AddCommand(FilesCmd)
	RootCmd.AddCommand(logCmd)
}

// Helper functions for testing

// GetRootCmd returns the RootCmd for testing.
func GetRootCmd() *cobra.Command {
	return RootCmd
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	resetInitCommandState()
	resetIdentityCommandState()
	resetFilesCommandState()
	resetLogCommandState()
}
