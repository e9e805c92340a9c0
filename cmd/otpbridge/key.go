package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/otpbridge/pkg/keychain"
)

func newKeyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the shared encryption key",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Create the shared key if the access group has none",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if _, err := a.keys.GetOrCreateSymmetricKey(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "shared key ready in %s\n", a.cfg.AccessGroup)
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Report whether the shared key exists",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, err := a.keys.GetSymmetricKey(cmd.Context())
				switch {
				case err == nil:
					fmt.Fprintln(cmd.OutOrStdout(), "present")
				case errors.Is(err, keychain.ErrNotFound):
					fmt.Fprintln(cmd.OutOrStdout(), "absent")
				default:
					return err
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Delete the shared key, turning sync off",
			Long: `Delete the shared key. Items encrypted under it can no longer be
read by either application.`,
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := a.keys.DeleteSymmetricKey(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "shared key deleted")
				return nil
			},
		},
	)

	return cmd
}
