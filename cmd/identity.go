package cmd

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/lockbox/internal/ui"
	"github.com/PolarWolf314/lockbox/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	identityForce bool
	identityName  string
)

func init() {
	identityCreateCmd.Flags().BoolVarP(&identityForce, "force", "f", false, "replace an existing keypair")
	identityCreateCmd.Flags().StringVarP(&identityName, "name", "n", "", "user name to register under if you are not yet a member")

	IdentityCmd.AddCommand(identityCreateCmd)
	IdentityCmd.AddCommand(identityPasswdCmd)
	IdentityCmd.AddCommand(identityShowCmd)
}

// resetIdentityCommandState resets the identity commands' global state for testing.
func resetIdentityCommandState() {
	identityForce = false
	identityName = ""
}

// IdentityCmd groups the commands that manage the current user's keypair.
var IdentityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Manage your keypair",
	Long: `Creates, inspects and re-protects your RSA keypair.

Your private key is stored encrypted under your passphrase. It is needed to
decrypt files and to share files you own.`,
}

var identityCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create your keypair and join the workspace",
	Long: `Generates a 2048-bit RSA keypair protected by a passphrase and registers
you with the workspace if you are not yet a member.

Replacing a keypair with --force makes every file shared with you unreadable
until its owner grants access again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting identity create command")

		passphrase, err := readNewPassphrase("Choose a passphrase for your private key: ")
		if err != nil {
			fmt.Println(formatError(err))
			return errSilent
		}
		defer wipe(passphrase)

		spinner, cleanup := startSpinner("Generating keypair...")
		defer cleanup()

		result, err := workflows.CreateIdentity(context.Background(), workflows.CreateIdentityOptions{
			Passphrase: passphrase,
			UserName:   identityName,
			Force:      identityForce,
			Logger:     Logger,
		})
		if err != nil {
			return finishWithError(spinner, err)
		}

		finalMessage := ui.Success.Sprint("✓") + " Keypair created for " + ui.Highlight.Sprint(result.UserName) + "\n" +
			"   Fingerprint: " + ui.Muted.Sprint(result.Fingerprint)
		if result.Registered {
			finalMessage += "\n" + ui.Success.Sprint("✓") + " Registered with the workspace"
		}
		if result.Replaced {
			finalMessage += "\n" + ui.Warning.Sprint("⚠") + " Your previous keypair was replaced. Files shared with you must be shared again"
		}
		spinner.FinalMSG = finalMessage
		return nil
	},
}

var identityPasswdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the passphrase protecting your private key",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting identity passwd command")

		oldPassphrase, err := readPassphrase()
		if err != nil {
			fmt.Println(formatError(err))
			return errSilent
		}
		defer wipe(oldPassphrase)

		newPassphrase, err := readNewPassphrase("New passphrase: ")
		if err != nil {
			fmt.Println(formatError(err))
			return errSilent
		}
		defer wipe(newPassphrase)

		spinner, cleanup := startSpinner("Changing passphrase...")
		defer cleanup()

		err = workflows.ChangePassphrase(context.Background(), workflows.ChangePassphraseOptions{
			OldPassphrase: oldPassphrase,
			NewPassphrase: newPassphrase,
			Logger:        Logger,
		})
		if err != nil {
			return finishWithError(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Passphrase changed"
		return nil
	},
}

var identityShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your identity in this workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting identity show command")

		spinner, cleanup := startSpinner("Loading identity...")
		defer cleanup()

		result, err := workflows.ShowIdentity(context.Background(), workflows.ShowIdentityOptions{Logger: Logger})
		if err != nil {
			return finishWithError(spinner, err)
		}

		keypair := ui.Warning.Sprint("not created")
		if result.Provisioned {
			keypair = ui.Muted.Sprint(result.Fingerprint)
		}

		spinner.FinalMSG = ui.Info.Sprint("Workspace:") + " " + ui.Highlight.Sprint(result.WorkspaceName) + "\n" +
			ui.Info.Sprint("User:") + "      " + ui.Highlight.Sprint(result.UserName) + " " + ui.Muted.Sprintf("(%s)", result.UserUUID) + "\n" +
			ui.Info.Sprint("Keypair:") + "   " + keypair + "\n" +
			ui.Info.Sprint("Files:") + "     " + fmt.Sprintf("%d owned, %d shared with you", result.OwnedFiles, result.SharedFiles)
		return nil
	},
}
