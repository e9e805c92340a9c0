package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "otpbridge",
		Short: "Share OTP items between a password manager and an authenticator.",
		Long: `otpbridge keeps the OTP items that a password manager shares with an
authenticator on the same device. Secrets are encrypted with a key held in a
keychain access group that both applications can read.

Configuration comes from OTPBRIDGE_* environment variables or a .env file.
Set OTPBRIDGE_APPLICATION to choose which application this process acts as.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			cmd.SetContext(ctx)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "load configuration from this .env file")

	root.AddCommand(
		newKeyCmd(a),
		newItemsCmd(a),
		newTempCmd(a),
		newCodesCmd(a),
		newTimeoutCmd(a),
		newStatusCmd(a),
	)

	return root, a
}
