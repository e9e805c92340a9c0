package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/otpbridge/pkg/keychain"
	"github.com/dmitrymomot/otpbridge/pkg/sharedkeys"
)

func newTimeoutCmd(a *app) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "timeout",
		Short: "Manage the shared session timeout of a user",
	}
	cmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "user id")
	_ = cmd.MarkPersistentFlagRequired("user")

	set := &cobra.Command{
		Use:   "set POLICY",
		Short: "Store the timeout policy and mark the user active now",
		Long: `Store the timeout policy of this application for the user. POLICY is
one of: never, onAppRestart, after:MINUTES, custom:RFC3339-TIME.
Policies without a deadline clear the stored entries instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := parsePolicy(args[0])
			if err != nil {
				return err
			}
			now := time.Now()
			return a.timeouts.UpdateTimeout(cmd.Context(), userID, &now, policy)
		},
	}

	touch := &cobra.Command{
		Use:   "touch",
		Short: "Mark the user active now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.timeouts.SetLastActiveTime(cmd.Context(), userID)
		},
	}

	var (
		of         string
		appRestart bool
	)
	check := &cobra.Command{
		Use:   "check",
		Short: "Report whether the user's session has timed out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := a.application
			if of != "" {
				app = keychain.Application(of)
			}
			passed, err := a.timeouts.HasPassedTimeout(cmd.Context(), app, userID, appRestart)
			if err != nil {
				// Unknown state is reported as locked.
				fmt.Fprintf(cmd.OutOrStdout(), "locked (%v)\n", err)
				return nil
			}
			if passed {
				fmt.Fprintln(cmd.OutOrStdout(), "locked")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "unlocked")
			}
			return nil
		},
	}
	check.Flags().StringVar(&of, "app", "", "application whose timeout to check (default: this one)")
	check.Flags().BoolVar(&appRestart, "app-restart", false, "evaluate as if the application just restarted")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored timeout entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.timeouts.ClearTimeout(cmd.Context(), userID)
		},
	}

	cmd.AddCommand(set, touch, check, clearCmd)
	return cmd
}

func parsePolicy(s string) (sharedkeys.TimeoutPolicy, error) {
	kind, arg, _ := strings.Cut(strings.TrimSpace(s), ":")
	switch sharedkeys.PolicyKind(kind) {
	case sharedkeys.PolicyNever:
		return sharedkeys.Never(), nil
	case sharedkeys.PolicyOnAppRestart:
		return sharedkeys.OnAppRestart(), nil
	case sharedkeys.PolicyAfter:
		m, err := strconv.Atoi(arg)
		if err != nil {
			return sharedkeys.TimeoutPolicy{}, fmt.Errorf("after: %w", err)
		}
		p := sharedkeys.After(m)
		return p, p.Validate()
	case sharedkeys.PolicyCustom:
		date, err := time.Parse(time.RFC3339, arg)
		if err != nil {
			return sharedkeys.TimeoutPolicy{}, fmt.Errorf("custom: %w", err)
		}
		return sharedkeys.Custom(date), nil
	default:
		return sharedkeys.TimeoutPolicy{}, sharedkeys.ErrInvalidPolicy
	}
}
