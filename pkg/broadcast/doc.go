// Package broadcast provides type-safe one-to-many message delivery.
//
// Basic usage:
//
//	feed := broadcast.NewMemoryBroadcaster[[]item.View](4, broadcast.WithReplay())
//	defer feed.Close()
//
//	sub := feed.Subscribe(ctx)
//	defer sub.Close()
//
//	_ = feed.Broadcast(ctx, broadcast.Message[[]item.View]{Data: views})
//
//	for msg := range sub.Receive(ctx) {
//		render(msg.Data)
//	}
//
// Broadcast never blocks. When a subscriber's queue is full its oldest
// queued message is discarded, so a slow reader always ends up with the
// newest value. With WithReplay, a new subscriber first receives the latest
// message sent before it subscribed.
//
// A subscription ends when the subscriber is closed, its context is
// cancelled, or the broadcaster is closed.
package broadcast
