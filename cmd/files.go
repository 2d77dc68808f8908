package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PolarWolf314/lockbox/internal/ciphers"
	"github.com/PolarWolf314/lockbox/internal/envelope"
	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/ui"
	"github.com/PolarWolf314/lockbox/internal/utils"
	"github.com/PolarWolf314/lockbox/internal/workflows"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// algorithmValue is a flag that only accepts supported cipher names.
type algorithmValue struct {
	alg ciphers.Algorithm
}

var _ pflag.Value = (*algorithmValue)(nil)

func (a *algorithmValue) String() string { return string(a.alg) }

func (a *algorithmValue) Set(s string) error {
	alg, err := ciphers.ParseAlgorithm(s)
	if err != nil {
		return err
	}
	a.alg = alg
	return nil
}

func (a *algorithmValue) Type() string { return "algorithm" }

var (
	uploadAlgorithm = algorithmValue{alg: ciphers.AES}
	uploadName      string
	listAccessible  bool
	grantUsers      []string
	revokeUser      string
	decryptOutput   string
	decryptForce    bool
)

func init() {
	uploadCmd.Flags().VarP(&uploadAlgorithm, "algorithm", "a", "cipher to encrypt with (AES, DES or RC4)")
	uploadCmd.Flags().StringVar(&uploadName, "name", "", "filename to record when reading from stdin")
	listCmd.Flags().BoolVar(&listAccessible, "accessible", false, "only show files you can decrypt")
	grantCmd.Flags().StringArrayVarP(&grantUsers, "user", "u", nil, "user to grant access to (repeatable)")
	revokeCmd.Flags().StringVarP(&revokeUser, "user", "u", "", "user to revoke access from")
	decryptCmd.Flags().StringVarP(&decryptOutput, "output", "o", "", "write to this path, or - for stdout")
	decryptCmd.Flags().BoolVarP(&decryptForce, "force", "f", false, "overwrite an existing output file")

	if err := grantCmd.MarkFlagRequired("user"); err != nil {
		panic(err)
	}
	if err := revokeCmd.MarkFlagRequired("user"); err != nil {
		panic(err)
	}

	FilesCmd.AddCommand(uploadCmd)
	FilesCmd.AddCommand(listCmd)
	FilesCmd.AddCommand(grantCmd)
	FilesCmd.AddCommand(revokeCmd)
	FilesCmd.AddCommand(accessCmd)
	FilesCmd.AddCommand(decryptCmd)
}

// resetFilesCommandState resets the files commands' global state for testing.
func resetFilesCommandState() {
	uploadAlgorithm = algorithmValue{alg: ciphers.AES}
	uploadName = ""
	listAccessible = false
	grantUsers = nil
	revokeUser = ""
	decryptOutput = ""
	decryptForce = false
}

// FilesCmd groups the commands that store, share and read encrypted files.
var FilesCmd = &cobra.Command{
	Use:   "files",
	Short: "Upload, share and decrypt files",
	Long: `Every uploaded file is encrypted with its own key. The key is stored only
inside envelopes: one for the owner and one per user the file is shared with.`,
}

var uploadCmd = &cobra.Command{
	Use:   "upload <path|glob|->...",
	Short: "Encrypt and store files",
	Long: `Encrypts each file with a fresh key and stores the ciphertext in the workspace.

Globs are expanded with ** support. Pass - to read a single file from stdin,
naming it with --name.

Examples:
  lockbox files upload report.pdf
  lockbox files upload "docs/**/*.md" --algorithm RC4
  cat notes.txt | lockbox files upload - --name notes.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting upload command")

		opts := workflows.UploadOptions{
			Algorithm: uploadAlgorithm.String(),
			Logger:    Logger,
		}

		if len(args) == 1 && args[0] == "-" {
			if uploadName == "" {
				fmt.Println(ui.Error.Sprint("✗") + " " + ui.Flag.Sprint("--name") + " is required when reading from stdin")
				return errSilent
			}
			data, err := utils.ReadStdin()
			if err != nil {
				fmt.Println(formatError(err))
				return errSilent
			}
			opts.Data = data
			opts.DataName = uploadName
		} else {
			opts.Patterns = args
		}

		spinner, cleanup := startSpinner("Encrypting files...")
		defer cleanup()

		result, err := workflows.Upload(context.Background(), opts)

		var b strings.Builder
		if result != nil {
			for _, f := range result.Files {
				source := f.Source
				if source == "" {
					source = f.Name
				}
				fmt.Fprintf(&b, "%s Uploaded %s as %s %s\n",
					ui.Success.Sprint("✓"),
					ui.Path.Sprint(source),
					ui.Highlight.Sprint(f.FileID),
					ui.Muted.Sprintf("(%s, %s -> %s, %s)", f.Algorithm, utils.FormatSize(f.PlainSize), utils.FormatSize(f.CipherSize), f.Elapsed.Round(time.Microsecond)))
			}
		}

		if err != nil {
			msg := formatError(err)
			if errors.Is(err, kerrors.ErrNoFilesFound) && len(opts.Patterns) > 0 {
				msg += " for:" + utils.FormatPaths(opts.Patterns)
			}
			spinner.FinalMSG = b.String() + msg
			if isUnexpectedError(err) {
				return errSilent
			}
			return nil
		}

		spinner.FinalMSG = b.String()
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the workspace's files",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting list command")

		spinner, cleanup := startSpinner("Loading files...")
		defer cleanup()

		result, err := workflows.List(context.Background(), workflows.ListOptions{
			Accessible: listAccessible,
			Logger:     Logger,
		})
		if err != nil {
			return finishWithError(spinner, err)
		}

		if len(result.Files) == 0 {
			spinner.FinalMSG = ui.Info.Sprint("ℹ") + " No files in " + ui.Highlight.Sprint(result.WorkspaceName)
			return nil
		}

		rows := make([][]string, 0, len(result.Files))
		for _, f := range result.Files {
			access := ui.Muted.Sprint("-")
			switch {
			case f.Owned:
				access = ui.Success.Sprint("owner")
			case f.Shared:
				access = ui.Info.Sprint("shared")
			}
			rows = append(rows, []string{
				f.FileID,
				ui.Path.Sprint(f.Name),
				f.Owner,
				f.Algorithm,
				utils.FormatSize(f.PlainSize),
				f.UploadedAt.Local().Format("2006-01-02 15:04"),
				access,
			})
		}

		var b strings.Builder
		if err := ui.Table(&b, []string{"id", "name", "owner", "algorithm", "size", "uploaded", "access"}, rows); err != nil {
			return err
		}
		spinner.FinalMSG = b.String()
		return nil
	},
}

var grantCmd = &cobra.Command{
	Use:   "grant <file> --user <name>...",
	Short: "Share a file you own with other users",
	Long: `Unlocks your private key and wraps the file's key for each user's public key.
Granting to a user who already has access replaces their envelope, which
restores access after they replace their keypair.

Examples:
  lockbox files grant report.pdf --user bob
  lockbox files grant 3f2c... -u bob -u carol`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting grant command")

		passphrase, err := readPassphrase()
		if err != nil {
			fmt.Println(formatError(err))
			return errSilent
		}
		defer wipe(passphrase)

		spinner, cleanup := startSpinner("Granting access...")
		defer cleanup()

		result, err := workflows.Grant(context.Background(), workflows.GrantOptions{
			FileRef:    args[0],
			Users:      grantUsers,
			Passphrase: passphrase,
			Logger:     Logger,
		})

		var b strings.Builder
		if result != nil {
			for _, g := range result.Granted {
				verb := "Granted"
				if g.Replaced {
					verb = "Re-granted"
				}
				fmt.Fprintf(&b, "%s %s %s access to %s\n", ui.Success.Sprint("✓"), verb, ui.Highlight.Sprint(g.Name), ui.Path.Sprint(result.FileName))
			}
		}

		if err != nil {
			spinner.FinalMSG = b.String() + formatError(err)
			return errSilent
		}
		spinner.FinalMSG = b.String()
		return nil
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <file> --user <name>",
	Short: "Remove a user's access to a file you own",
	Long: `Deletes the user's envelope for the file. The file key is not rotated, so a
copy the user already decrypted is not affected.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting revoke command")

		spinner, cleanup := startSpinner("Revoking access...")
		defer cleanup()

		result, err := workflows.Revoke(context.Background(), workflows.RevokeOptions{
			FileRef: args[0],
			User:    revokeUser,
			Logger:  Logger,
		})
		if err != nil {
			return finishWithError(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Revoked " + ui.Highlight.Sprint(result.UserName) +
			"'s access to " + ui.Path.Sprint(result.FileName)
		return nil
	},
}

var accessCmd = &cobra.Command{
	Use:   "access <file>",
	Short: "Show who can decrypt a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting access command")

		spinner, cleanup := startSpinner("Loading access...")
		defer cleanup()

		result, err := workflows.Access(context.Background(), workflows.AccessOptions{
			FileRef: args[0],
			Logger:  Logger,
		})
		if err != nil {
			return finishWithError(spinner, err)
		}

		rows := [][]string{{ui.Highlight.Sprint(result.Owner.Name), result.Owner.UUID, ui.Success.Sprint("owner")}}
		for _, r := range result.Recipients {
			rows = append(rows, []string{ui.Highlight.Sprint(r.Name), r.UUID, ui.Info.Sprint("shared")})
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%s %s\n\n", ui.Path.Sprint(result.FileName), ui.Muted.Sprintf("(%s, %s)", result.FileID, result.Algorithm))
		if err := ui.Table(&b, []string{"user", "uuid", "access"}, rows); err != nil {
			return err
		}
		spinner.FinalMSG = b.String()
		return nil
	},
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt <file>",
	Short: "Decrypt a file you own or that was shared with you",
	Long: `Opens your envelope for the file with your private key and decrypts it.

The plaintext is written to the file's original name in the current
directory unless --output is given. Use --output - to write to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting decrypt command")

		passphrase, err := readPassphrase()
		if err != nil {
			fmt.Println(formatError(err))
			return errSilent
		}
		defer wipe(passphrase)

		opts := workflows.DecryptOptions{
			FileRef:    args[0],
			Passphrase: passphrase,
			Output:     decryptOutput,
			Force:      decryptForce,
			Logger:     Logger,
		}

		if decryptOutput == workflows.StdoutOutput {
			// Plaintext on stdout must not be mixed with spinner output.
			result, err := workflows.Decrypt(context.Background(), opts)
			if err != nil {
				fmt.Fprintln(os.Stderr, formatError(err))
				return errSilent
			}
			defer wipe(result.Plaintext)
			if _, err := os.Stdout.Write(result.Plaintext); err != nil {
				return fmt.Errorf("failed to write plaintext: %w", err)
			}
			return nil
		}

		spinner, cleanup := startSpinner("Decrypting...")
		defer cleanup()

		result, err := workflows.Decrypt(context.Background(), opts)
		if err != nil {
			return finishWithError(spinner, err)
		}

		via := "your shared access"
		if result.Role == envelope.RoleOwner {
			via = "your owner key"
		}
		spinner.FinalMSG = ui.Success.Sprint("✓") + " Decrypted " + ui.Path.Sprint(result.FileName) +
			" to " + ui.Path.Sprint(result.OutputPath) + " using " + via + " " +
			ui.Muted.Sprintf("(%s, %s)", utils.FormatSize(result.Size), result.Elapsed.Round(time.Microsecond))
		return nil
	},
}
