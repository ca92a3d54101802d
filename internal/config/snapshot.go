package config

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"layerd/internal/input/layout"
)

// Snapshot is one complete, validated configuration generation: the
// compiled layer table plus an identity for log correlation. Snapshots
// are immutable.
type Snapshot struct {
	// ID identifies this generation in logs.
	ID string

	// Path is the layout file the snapshot was compiled from.
	Path string

	// Table is the validated layer table.
	Table *layout.Table
}

// LoadSnapshot compiles the layout file into a snapshot. Either the
// whole snapshot is valid or a ConfigError is returned; there is no
// partial result.
func LoadSnapshot(path string) (*Snapshot, error) {
	table, err := ParseLayoutFile(path)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		ID:    uuid.NewString(),
		Path:  path,
		Table: table,
	}, nil
}

// Manager owns the active snapshot and performs atomic reloads: a
// failed reload leaves the previously active snapshot in force.
type Manager struct {
	mu      sync.RWMutex
	current *Snapshot
	log     *zap.Logger

	// OnSwap, if set, is called with each newly adopted snapshot.
	onSwap func(*Snapshot)
}

// NewManager creates a manager around an initial snapshot.
func NewManager(initial *Snapshot, onSwap func(*Snapshot), log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{current: initial, onSwap: onSwap, log: log}
}

// Current returns the active snapshot.
func (m *Manager) Current() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Reload compiles the layout file again. On success the new snapshot
// becomes active and OnSwap fires; on failure the active snapshot is
// untouched and the error is returned.
func (m *Manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := LoadSnapshot(m.current.Path)
	if err != nil {
		m.log.Warn("reload rejected, keeping active table",
			zap.String("active", m.current.ID), zap.Error(err))
		return err
	}

	prev := m.current
	m.current = next
	m.log.Info("configuration reloaded",
		zap.String("previous", prev.ID), zap.String("active", next.ID),
		zap.Int("layers", len(next.Table.LayerNames())))
	if m.onSwap != nil {
		m.onSwap(next)
	}
	return nil
}
