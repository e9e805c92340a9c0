// Package itemsync stores the items one application shares with the other and
// publishes their decrypted lists.
//
// Items are encrypted by a Cryptography (bridgecrypto.Service) before they
// reach a Store and decrypted on the way out, so a Store only ever sees
// ciphertext for the secret fields. Two stores are provided: MemoryStore and
// PostgresStore, whose schema ships as goose migrations in Migrations.
//
//	svc, err := itemsync.NewService(store, crypto, keys)
//	if err != nil {
//		return err
//	}
//	defer svc.Close()
//
//	if err := svc.ReplaceAll(ctx, views, userID); err != nil {
//		return err
//	}
//	sub, err := svc.Feed(ctx, userID)
//	if err != nil {
//		return err
//	}
//	for msg := range sub.Receive(ctx) {
//		render(msg.Data)
//	}
//
// ReplaceAll replaces the user's whole set; it never merges. A single item
// can also be handed over through the staging slot with InsertTemporaryItem
// and FetchTemporaryItem, which empties the slot as it reads it.
//
// Nothing notifies a process about writes made by the other one. Callers
// invoke Refresh, for example when the application returns to the
// foreground, to push the stored list to subscribers.
package itemsync
