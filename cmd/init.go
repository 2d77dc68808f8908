package cmd

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/lockbox/internal/configs"
	"github.com/PolarWolf314/lockbox/internal/ui"
	"github.com/PolarWolf314/lockbox/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	initWorkspaceName string
	initUserName      string
	initBackend       string
	initStorePath     string
	initNoIdentity    bool
)

func init() {
	initCmd.Flags().StringVarP(&initWorkspaceName, "name", "n", "", "workspace name (defaults to the directory name)")
	initCmd.Flags().StringVarP(&initUserName, "user", "u", "", "your user name in this workspace")
	initCmd.Flags().StringVar(&initBackend, "backend", configs.BackendSQLite, "key store backend (sqlite or badger)")
	initCmd.Flags().StringVar(&initStorePath, "store-path", "", "key store location relative to .lockbox")
	initCmd.Flags().BoolVar(&initNoIdentity, "no-identity", false, "skip creating your keypair")
}

// resetInitCommandState resets the init command's global state for testing.
func resetInitCommandState() {
	initWorkspaceName = ""
	initUserName = ""
	initBackend = configs.BackendSQLite
	initStorePath = ""
	initNoIdentity = false
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a lockbox workspace in the current directory",
	Long: `Creates a .lockbox directory holding the workspace config, the key store
and the encrypted file blobs, and registers you as the first user.

Unless --no-identity is given you are then asked for a passphrase and your
RSA keypair is created. Set LOCKBOX_PASSPHRASE to skip the prompt.

Examples:
  lockbox init
  lockbox init --name team-docs --user alice
  lockbox init --backend badger`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting init command")

		var passphrase []byte
		if !initNoIdentity {
			var err error
			passphrase, err = readNewPassphrase("Choose a passphrase for your private key: ")
			if err != nil {
				fmt.Println(formatError(err))
				return errSilent
			}
			defer wipe(passphrase)
		}

		spinner, cleanup := startSpinner("Initializing lockbox...")
		defer cleanup()

		ctx := context.Background()
		result, err := workflows.Init(ctx, workflows.InitOptions{
			WorkspaceName: initWorkspaceName,
			UserName:      initUserName,
			Store: configs.StoreConfig{
				Backend: initBackend,
				Path:    initStorePath,
			},
			Logger: Logger,
		})
		if err != nil {
			return finishWithError(spinner, err)
		}

		Logger.Debugf("Workspace %s (%s) created at %s", result.WorkspaceName, result.WorkspaceUUID, result.WorkspacePath)

		finalMessage := ui.Success.Sprint("✓") + " lockbox initialized workspace " + ui.Highlight.Sprint(result.WorkspaceName) +
			" with the " + ui.Highlight.Sprint(result.Backend) + " key store\n" +
			"   You are registered as " + ui.Highlight.Sprint(result.UserName)

		if initNoIdentity {
			spinner.FinalMSG = finalMessage + "\n" +
				ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("lockbox identity create") + " to create your keypair"
			return nil
		}

		identity, err := workflows.CreateIdentity(ctx, workflows.CreateIdentityOptions{
			Passphrase: passphrase,
			Logger:     Logger,
		})
		if err != nil {
			spinner.FinalMSG = finalMessage + "\n" + formatError(err)
			return errSilent
		}

		spinner.FinalMSG = finalMessage + "\n" +
			ui.Success.Sprint("✓") + " Keypair created\n" +
			"   Fingerprint: " + ui.Muted.Sprint(identity.Fingerprint) + "\n" +
			ui.Info.Sprint("→") + " Upload a file with " + ui.Code.Sprint("lockbox files upload <path>")
		return nil
	},
}
