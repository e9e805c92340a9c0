package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/otpbridge/pkg/item"
)

func newTempCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "temp",
		Short: "Hand a single item to the other application",
	}

	var view item.View
	push := &cobra.Command{
		Use:   "push",
		Short: "Put an item in the staging slot, reading its TOTP key from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readKey(cmd)
			if err != nil {
				return err
			}
			view.TOTPKey = raw
			view.ID = uuid.NewString()
			if err := a.items.InsertTemporaryItem(cmd.Context(), view); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "staged %s\n", view.ID)
			return nil
		},
	}
	addItemFlags(push, &view)

	var into string
	pull := &cobra.Command{
		Use:   "pull",
		Short: "Take the item out of the staging slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := a.items.FetchTemporaryItem(cmd.Context())
			if err != nil {
				return err
			}
			if v == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "staging slot is empty")
				return nil
			}
			if into != "" {
				if err := a.items.UpsertOne(cmd.Context(), *v, into); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "received %s (%s)\n", v.ID, v.Name)
			return nil
		},
	}
	pull.Flags().StringVar(&into, "into", "", "store the received item for this user id")

	cmd.AddCommand(push, pull)
	return cmd
}
