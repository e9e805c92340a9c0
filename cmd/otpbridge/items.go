package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/otpbridge/pkg/item"
	"github.com/dmitrymomot/otpbridge/pkg/qrcode"
	"github.com/dmitrymomot/otpbridge/pkg/totp"
)

func newItemsCmd(a *app) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "items",
		Short: "Manage the items shared for a user",
	}
	cmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "user id owning the items")
	_ = cmd.MarkPersistentFlagRequired("user")

	list := &cobra.Command{
		Use:   "list",
		Short: "List items with their current codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			views, err := a.items.FetchAll(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return printItems(cmd, views, time.Now())
		},
	}

	var (
		view     item.View
		generate bool
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Add an item, reading its TOTP key from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if generate {
				secret, err := totp.GenerateSecretKey()
				if err != nil {
					return err
				}
				view.TOTPKey = secret
				fmt.Fprintf(cmd.OutOrStdout(), "generated secret %s\n", secret)
			} else {
				raw, err := readKey(cmd)
				if err != nil {
					return err
				}
				view.TOTPKey = raw
			}
			view.ID = uuid.NewString()

			if err := a.items.UpsertOne(cmd.Context(), view, userID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", view.ID)
			return nil
		},
	}
	addItemFlags(add, &view)
	add.Flags().BoolVar(&generate, "generate", false, "generate a new random secret instead of reading one")

	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Remove one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.items.DeleteOne(cmd.Context(), args[0], userID)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every item of the user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.items.DeleteAll(cmd.Context(), userID)
		},
	}

	var (
		out  string
		size int
	)
	qr := &cobra.Command{
		Use:   "qr ID",
		Short: "Show an item's key as a QR code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := a.items.FetchAll(cmd.Context(), userID)
			if err != nil {
				return err
			}
			key, err := findKey(views, args[0])
			if err != nil {
				return err
			}

			if out == "" {
				text, err := qrcode.Terminal(key.URI())
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), text)
				return nil
			}
			png, err := qrcode.ForKey(key, size)
			if err != nil {
				return err
			}
			return os.WriteFile(out, png, 0o600)
		},
	}
	qr.Flags().StringVarP(&out, "out", "o", "", "write a PNG to this file instead of printing")
	qr.Flags().IntVar(&size, "size", 256, "PNG size in pixels")

	cmd.AddCommand(list, add, rm, clearCmd, qr)
	return cmd
}

func addItemFlags(cmd *cobra.Command, v *item.View) {
	cmd.Flags().StringVar(&v.Name, "name", "", "display name")
	cmd.Flags().StringVar(&v.Username, "username", "", "account username")
	cmd.Flags().StringVar(&v.AccountDomain, "domain", "", "account domain")
	cmd.Flags().StringVar(&v.AccountEmail, "email", "", "account email")
	cmd.Flags().BoolVar(&v.Favorite, "favorite", false, "mark as favorite")
	_ = cmd.MarkFlagRequired("name")
}

func findKey(views []item.View, id string) (totp.Key, error) {
	for _, v := range views {
		if v.ID != id {
			continue
		}
		key, ok := totp.ParseKey(v.TOTPKey)
		if !ok {
			return totp.Key{}, totp.ErrInvalidKeyFormat
		}
		return key, nil
	}
	return totp.Key{}, fmt.Errorf("item %q not found", id)
}

func printItems(cmd *cobra.Command, views []item.View, now time.Time) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tUSERNAME\tCODE\tEXPIRES")
	for _, v := range views {
		code, expires := "-", "-"
		if key, ok := totp.ParseKey(v.TOTPKey); ok {
			if c, err := totp.Generate(key, now); err == nil {
				code = c.Code
				expires = c.Remaining(now).Round(time.Second).String()
			}
		}
		name := v.Name
		if v.Favorite {
			name += " *"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.ID, name, v.Username, code, expires)
	}
	return w.Flush()
}
