package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	errs "github.com/jrsteele09/subhub-server/internal/errors"
	"github.com/jrsteele09/subhub-server/subscriptions"
	"github.com/jrsteele09/subhub-server/users"
	"github.com/rs/zerolog/log"
)

const (
	DefaultThrottle  = time.Second
	backupTimeFormat = "20060102_150405"
)

// Source is the account set a Manager saves and restores.
type Source interface {
	Snapshot() []users.User
	Replace(accounts []users.User)
}

// Manager writes the account set to a single JSON file and restores it at
// startup. Writes go to a temp file in the same directory which is fsynced and
// renamed over the target, so readers only ever see a complete snapshot.
type Manager struct {
	path     string
	source   Source
	throttle time.Duration
	nowTime  func() time.Time

	mu       sync.Mutex // serializes saves; held across snapshot and rename
	lastSave time.Time
	dirty    bool
}

var _ users.Persister = (*Manager)(nil)

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithThrottle sets the minimum gap between unforced saves.
func WithThrottle(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d >= 0 {
			m.throttle = d
		}
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

func NewManager(path string, source Source, options ...ManagerOption) *Manager {
	m := &Manager{
		path:     path,
		source:   source,
		throttle: DefaultThrottle,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *Manager) Path() string {
	return m.path
}

// Save writes the current account set. Unless force is set, a call within the
// throttle window of the previous successful save does nothing and returns
// nil; the skipped state is written by the next forced or unthrottled save.
func (m *Manager) Save(force bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowTime()
	if !force && !m.lastSave.IsZero() && now.Sub(m.lastSave) < m.throttle {
		m.dirty = true
		log.Debug().Msg("Skipping save operation (throttled)")
		return nil
	}

	if err := m.writeLocked(); err != nil {
		m.dirty = true
		log.Error().Err(err).Str("path", m.path).Msg("Could not save data to file")
		return errs.Wrapf(errs.ErrIO, "save %s: %v", m.path, err)
	}

	m.lastSave = now
	m.dirty = false
	log.Debug().Str("path", m.path).Msg("Data saved")
	return nil
}

// FlushIfDirty force-saves only when a save was skipped or failed since the
// last successful write.
func (m *Manager) FlushIfDirty() error {
	m.mu.Lock()
	dirty := m.dirty
	m.mu.Unlock()

	if !dirty {
		return nil
	}
	return m.Save(true)
}

// Dirty reports whether a skipped or failed save is waiting to be flushed.
func (m *Manager) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// Run flushes skipped saves every interval until ctx is done, then flushes
// one last time.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = m.FlushIfDirty()
			return
		case <-ticker.C:
			_ = m.FlushIfDirty()
		}
	}
}

// Load restores the account set from disk. A missing file is a first run and
// returns false with no error. Bad records are skipped or repaired; only an
// unreadable or unparseable file is an error, and it leaves the source as is.
func (m *Manager) Load() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info().Str("path", m.path).Msg("No data file found, starting with empty database")
		return false, nil
	}
	if err != nil {
		log.Error().Err(err).Str("path", m.path).Msg("Could not read data file")
		return false, errs.Wrapf(errs.ErrIO, "load %s: %v", m.path, err)
	}

	today := func() subscriptions.Date { return subscriptions.DateOf(m.nowTime()) }
	accounts, skipped, err := decodeSnapshot(data, today)
	if err != nil {
		log.Error().Err(err).Str("path", m.path).Msg("Could not parse data file, starting fresh")
		return false, errs.Wrapf(errs.ErrIO, "load %s: %v", m.path, err)
	}

	m.source.Replace(accounts)
	log.Info().
		Str("path", m.path).
		Int("users", len(accounts)).
		Int("skipped", skipped).
		Msg("Data loaded")
	return true, nil
}

// Backup copies the data file to <path>.<YYYYmmdd_HHMMSS>.bak. A missing data
// file is not an error and returns false.
func (m *Manager) Backup() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		log.Error().Err(err).Str("path", m.path).Msg("Could not create data backup")
		return false, errs.Wrapf(errs.ErrIO, "backup %s: %v", m.path, err)
	}

	backupPath := m.path + "." + m.nowTime().Format(backupTimeFormat) + ".bak"
	if err := writeFileAtomic(backupPath, data, 0o600); err != nil {
		log.Error().Err(err).Str("path", backupPath).Msg("Could not create data backup")
		return false, errs.Wrapf(errs.ErrIO, "backup %s: %v", m.path, err)
	}

	log.Info().Str("path", backupPath).Msg("Backup created")
	return true, nil
}

func (m *Manager) writeLocked() error {
	data, err := encodeSnapshot(m.source.Snapshot())
	if err != nil {
		return err
	}
	return writeFileAtomic(m.path, data, 0o600)
}

// writeFileAtomic replaces path with data via a synced temp file and rename.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	syncDir(dir)
	return nil
}

// syncDir makes the rename itself durable where the platform allows fsync on
// a directory.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
