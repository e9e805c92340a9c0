package main

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
)

type statusReport struct {
	Application     string            `json:"application"`
	AccessGroup     string            `json:"access_group"`
	KeychainBackend string            `json:"keychain_backend"`
	Store           string            `json:"store"`
	SyncEnabled     bool              `json:"sync_enabled"`
	Health          map[string]string `json:"health,omitempty"`
}

func newStatusCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration, backend health and whether sync is on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report := statusReport{
				Application:     string(a.application),
				AccessGroup:     a.cfg.AccessGroup,
				KeychainBackend: a.cfg.KeychainBackend,
				Store:           a.cfg.Store,
				SyncEnabled:     a.items.IsSyncEnabled(cmd.Context()),
				Health:          runChecks(cmd.Context(), a.checks),
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "application:  %s\n", report.Application)
			fmt.Fprintf(w, "access group: %s\n", report.AccessGroup)
			fmt.Fprintf(w, "keychain:     %s\n", report.KeychainBackend)
			fmt.Fprintf(w, "item store:   %s\n", report.Store)
			fmt.Fprintf(w, "sync:         %s\n", onOff(report.SyncEnabled))
			for _, name := range slices.Sorted(maps.Keys(report.Health)) {
				fmt.Fprintf(w, "health:       %s %s\n", name, report.Health[name])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")

	return cmd
}

// runChecks returns "ok" or the error text per component, or nil when
// there is nothing to check.
func runChecks(ctx context.Context, checks map[string]func(context.Context) error) map[string]string {
	if len(checks) == 0 {
		return nil
	}
	out := make(map[string]string, len(checks))
	for name, check := range checks {
		if err := check(ctx); err != nil {
			out[name] = err.Error()
			continue
		}
		out[name] = "ok"
	}
	return out
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
