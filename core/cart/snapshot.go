package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// SnapshotVersion is written with every snapshot; loads of any other version fail.
const SnapshotVersion = 1

var (
	ErrNoSnapshot      = errors.New("no cart snapshot")
	ErrSnapshotVersion = errors.New("unsupported cart snapshot version")
	ErrSnapshotCorrupt = errors.New("corrupt cart snapshot")
)

// Snapshot is the whole cart as persisted: its lines in order.
type Snapshot struct {
	Version int    `json:"version"`
	Lines   []Line `json:"lines"`
}

type SnapshotStore interface {
	Load(ctx context.Context, cartID string) (Snapshot, error)
	Save(ctx context.Context, cartID string, snap Snapshot) error
}

func (s *Store) Snapshot() Snapshot {
	return Snapshot{Version: SnapshotVersion, Lines: s.Lines()}
}

// Restore rebuilds a store from a snapshot. Lines breaking the quantity
// invariant and repeated keys are dropped; their number is returned.
func Restore(snap Snapshot) (*Store, int) {
	s := NewStore()

	var dropped int
	for _, l := range snap.Lines {
		if !l.valid() || s.index(l.ProductID, l.Size) >= 0 {
			dropped++
			continue
		}
		s.lines = append(s.lines, l)
	}
	return s, dropped
}

func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	snap.Version = SnapshotVersion
	if snap.Lines == nil {
		snap.Lines = []Line{}
	}

	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return b, nil
}

func DecodeSnapshot(b []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w: %w", ErrSnapshotCorrupt, err)
	}

	if snap.Version != SnapshotVersion {
		return Snapshot{}, fmt.Errorf("version %d: %w", snap.Version, ErrSnapshotVersion)
	}
	return snap, nil
}

// MemorySnapshots keeps encoded snapshots in process memory.
type MemorySnapshots struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{carts: make(map[string][]byte)}
}

func (m *MemorySnapshots) Load(_ context.Context, cartID string) (Snapshot, error) {
	m.mu.RLock()
	b, ok := m.carts[cartID]
	m.mu.RUnlock()

	if !ok {
		return Snapshot{}, ErrNoSnapshot
	}
	return DecodeSnapshot(b)
}

func (m *MemorySnapshots) Save(_ context.Context, cartID string, snap Snapshot) error {
	b, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.carts[cartID] = b
	m.mu.Unlock()
	return nil
}
