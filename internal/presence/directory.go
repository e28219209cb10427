package presence

import (
	"context"
	"fmt"
	"log"
	"time"
)

// SessionPolicy decides what happens to a user's existing connections when a
// new one registers.
type SessionPolicy string

const (
	// SingleSession evicts all prior connections on connect: one live
	// connection per user.
	SingleSession SessionPolicy = "SINGLE_SESSION"
	// MultiSession keeps prior connections: one user, many devices.
	MultiSession SessionPolicy = "MULTI_SESSION"
)

// ParseSessionPolicy maps a config string to a policy, defaulting to
// SingleSession for anything unrecognized.
func ParseSessionPolicy(s string) SessionPolicy {
	if SessionPolicy(s) == MultiSession {
		return MultiSession
	}
	return SingleSession
}

// Directory tracks which live connections belong to which user. Lookups are
// best-effort: a store failure degrades real-time delivery, it never blocks
// the operation that triggered it.
type Directory struct {
	store  Store
	ttl    time.Duration
	policy SessionPolicy
}

func NewDirectory(store Store, ttl time.Duration, policy SessionPolicy) *Directory {
	return &Directory{store: store, ttl: ttl, policy: policy}
}

// Connect registers a connection for the user and refreshes the key's TTL.
// Under SingleSession any existing connections are evicted first.
func (d *Directory) Connect(ctx context.Context, userID int64, connectionID string) error {
	key := presenceKey(userID)

	if d.policy == SingleSession {
		existing, err := d.store.Members(ctx, key)
		if err != nil {
			return fmt.Errorf("listing connections for user %d: %w", userID, err)
		}
		for _, member := range existing {
			if err := d.store.Remove(ctx, key, member); err != nil {
				return fmt.Errorf("evicting connection %s: %w", member, err)
			}
		}
	}

	if err := d.store.Add(ctx, key, connectionID); err != nil {
		return fmt.Errorf("registering connection: %w", err)
	}
	if err := d.store.Expire(ctx, key, d.ttl); err != nil {
		log.Printf("presence: refreshing ttl for user %d: %v", userID, err)
	}
	return nil
}

// Disconnect removes the connection and deletes the key once no connections
// remain.
func (d *Directory) Disconnect(ctx context.Context, userID int64, connectionID string) error {
	key := presenceKey(userID)

	if err := d.store.Remove(ctx, key, connectionID); err != nil {
		return fmt.Errorf("removing connection: %w", err)
	}

	count, err := d.store.Count(ctx, key)
	if err != nil {
		return fmt.Errorf("counting connections for user %d: %w", userID, err)
	}
	if count == 0 {
		if err := d.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("deleting presence entry for user %d: %w", userID, err)
		}
	}
	return nil
}

// Route returns the user's live connections. A store failure or an absent key
// both yield an empty slice; fanout to that user is silently skipped.
func (d *Directory) Route(ctx context.Context, userID int64) []string {
	members, err := d.store.Members(ctx, presenceKey(userID))
	if err != nil {
		log.Printf("presence: routing user %d: %v", userID, err)
		return nil
	}
	return members
}

func presenceKey(userID int64) string {
	return fmt.Sprintf("presence:%d", userID)
}
