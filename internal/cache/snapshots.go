// Package cache persists whole-collection snapshots so the booking ledger
// and the chat log survive a restart even when the remote store is
// unreachable. Snapshots are the canonical in-memory shape serialized as
// JSON under one key per collection.
package cache

import (
	"context"
	"encoding/json"

	"smilecare-sync/internal/store"

	"go.uber.org/zap"
)

// Snapshot namespaces (one per cached collection).
const (
	NamespaceBookings = "smilecare:snapshot:bookings"
	NamespaceMessages = "smilecare:snapshot:messages"
)

// SnapshotStore wraps a KV with best-effort JSON snapshot semantics: reads
// that fail for any reason (missing key, backend error, corrupt payload)
// report absent instead of propagating, and writes never surface an error
// to the caller. The sync engine treats the cache as advisory.
type SnapshotStore struct {
	kv     store.KV
	logger *zap.Logger
}

func NewSnapshotStore(kv store.KV, logger *zap.Logger) *SnapshotStore {
	return &SnapshotStore{kv: kv, logger: logger}
}

// Load decodes the snapshot under namespace into v. Returns false when the
// snapshot is absent or unreadable; v is left untouched in that case.
func (s *SnapshotStore) Load(ctx context.Context, namespace string, v any) bool {
	raw, err := s.kv.Get(ctx, namespace)
	if err != nil {
		if err != store.ErrMiss {
			s.logger.Warn("snapshot read failed, treating as absent",
				zap.String("namespace", namespace),
				zap.Error(err),
			)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.logger.Warn("snapshot payload corrupt, treating as absent",
			zap.String("namespace", namespace),
			zap.Error(err),
		)
		return false
	}
	return true
}

// Save serializes v under namespace. Fire-and-forget: failures are logged,
// the caller does not await or observe them.
func (s *SnapshotStore) Save(ctx context.Context, namespace string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("snapshot marshal failed",
			zap.String("namespace", namespace),
			zap.Error(err),
		)
		return
	}
	if err := s.kv.Set(ctx, namespace, string(raw), 0); err != nil {
		s.logger.Warn("snapshot write failed",
			zap.String("namespace", namespace),
			zap.Error(err),
		)
	}
}
