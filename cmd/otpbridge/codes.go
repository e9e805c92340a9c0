package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/otpbridge/pkg/item"
	"github.com/dmitrymomot/otpbridge/pkg/logger"
	"github.com/dmitrymomot/otpbridge/pkg/refresh"
	"github.com/dmitrymomot/otpbridge/pkg/totp"
)

func newCodesCmd(a *app) *cobra.Command {
	var (
		userID string
		poll   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "codes",
		Short: "Print codes as they change until interrupted",
		Long: `Print every item's code, then print new codes whenever they expire.
The item list is reloaded every --poll interval to pick up changes made by
the other application.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return watchCodes(cmd.Context(), a, userID, poll, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id owning the items")
	cmd.Flags().DurationVar(&poll, "poll", 5*time.Second, "how often to reload items")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

// board prints code updates under the item names known at the time.
type board struct {
	mu    sync.Mutex
	out   io.Writer
	names map[string]string
}

func (b *board) setNames(views []item.View) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.names = make(map[string]string, len(views))
	for _, v := range views {
		b.names[v.ID] = v.Name
	}
}

func (b *board) print(updates []refresh.Update) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	for _, u := range updates {
		fmt.Fprintf(b.out, "%-24s %-10s %3ds\n", b.names[u.ID], u.Code.Code, int(u.Code.Remaining(now).Seconds()))
	}
}

func watchCodes(ctx context.Context, a *app, userID string, poll time.Duration, out io.Writer) error {
	sub, err := a.items.Feed(ctx, userID)
	if err != nil {
		return err
	}
	defer sub.Close()

	b := &board{out: out}
	sched, err := refresh.NewScheduler(b.print, refresh.WithLogger(a.log))
	if err != nil {
		return err
	}
	defer sched.Cleanup()

	ticker := time.NewTicker(max(poll, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Receive(ctx):
			if !ok {
				return nil
			}
			b.setNames(msg.Data)
			b.print(sched.Configure(scheduledItems(ctx, a.log, msg.Data)))
		case <-ticker.C:
			if err := a.items.Refresh(ctx, userID); err != nil {
				a.log.WarnContext(ctx, "failed to reload items", logger.UserID(userID), logger.Error(err))
			}
		}
	}
}

// scheduledItems keeps the views whose key parses; the rest are not shown.
func scheduledItems(ctx context.Context, log *slog.Logger, views []item.View) []refresh.Item {
	items := make([]refresh.Item, 0, len(views))
	for _, v := range views {
		key, ok := totp.ParseKey(v.TOTPKey)
		if !ok {
			log.WarnContext(ctx, "skipping item with unrecognised key", logger.ItemID(v.ID))
			continue
		}
		items = append(items, refresh.Item{ID: v.ID, Key: key})
	}
	return items
}
