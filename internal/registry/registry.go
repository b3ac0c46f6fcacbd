// Package registry is the local, on-disk developer registry used by the udicti CLI.
// It is an insert-only cache of the remote directory keyed by email.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"golang.org/x/text/cases"

	"github.com/Sirily23/udicti-cli/internal/model"
)

var (
	// ErrDuplicateRecord indicates a developer with that email is already registered.
	ErrDuplicateRecord = errors.New("developer already registered")

	// ErrNotFound indicates the requested developer does not exist.
	ErrNotFound = errors.New("developer not found")

	// ErrInvalidRecord indicates the record lacks a name or email.
	ErrInvalidRecord = errors.New("invalid developer record")
)

// FileName is the registry file inside the config directory.
const FileName = "users.json"

// Path returns the standard registry path in a config directory.
func Path(configDir string) string {
	return filepath.Join(configDir, FileName)
}

// Store provides process- and thread-safe registry operations. Writes hold an
// exclusive advisory lock on <path>.lock and replace the file atomically.
type Store struct {
	mu     sync.Mutex
	path   string
	fold   bool
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithEmailFolding makes email comparison trimmed and case-insensitive.
func WithEmailFolding(on bool) Option {
	return func(s *Store) {
		s.fold = on
	}
}

// WithLogger sets the logger used for recoverable problems such as a corrupt file.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New creates a Store backed by the file at path.
func New(path string, opts ...Option) *Store {
	s := &Store{path: path, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Initialize creates the registry holding an empty list if it does not exist.
// Safe to call any number of times.
func (s *Store) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withFileLock(s.initLocked)
}

// List returns all developers in insertion order. A corrupt registry reads as
// empty: the local cache must never block a command.
func (s *Store) List() ([]model.Developer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		if err := s.withFileLock(s.initLocked); err != nil {
			return nil, err
		}
	}

	devs, corrupt, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	if corrupt {
		s.logger.Warn("developer registry is unreadable, treating as empty", "path", s.path)
		return []model.Developer{}, nil
	}
	return devs, nil
}

// Add appends a developer. Returns ErrDuplicateRecord if the email is taken,
// in which case the file is left untouched.
func (s *Store) Add(d model.Developer) (model.Developer, error) {
	if !complete(d) {
		return model.Developer{}, fmt.Errorf("%w: name and email are required", ErrInvalidRecord)
	}
	d = prepare(d)

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withFileLock(func() error {
		devs, _, err := s.loadForWriteLocked()
		if err != nil {
			return err
		}

		for _, existing := range devs {
			if s.sameEmail(existing.Email, d.Email) {
				return fmt.Errorf("%w: %s", ErrDuplicateRecord, d.Email)
			}
		}

		return s.writeLocked(append(devs, d))
	})
	if err != nil {
		return model.Developer{}, err
	}
	return d, nil
}

// AddMissing appends every developer whose email is not registered yet, in
// order, with a single read and at most one write. Records without a name or
// email are skipped and counted in neither added nor present; a repeated email
// within devs counts as present. Existing records are never modified. On error
// nothing is written and added is zero.
func (s *Store) AddMissing(devs []model.Developer) (added, present int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.withFileLock(func() error {
		existing, movedAside, err := s.loadForWriteLocked()
		if err != nil {
			return err
		}

		seen := make(map[string]struct{}, len(existing)+len(devs))
		for _, d := range existing {
			seen[s.emailKey(d.Email)] = struct{}{}
		}

		var fresh []model.Developer
		for _, d := range devs {
			if !complete(d) {
				continue
			}
			key := s.emailKey(d.Email)
			if _, ok := seen[key]; ok {
				present++
				continue
			}
			seen[key] = struct{}{}
			fresh = append(fresh, prepare(d))
		}

		if len(fresh) == 0 && !movedAside {
			return nil
		}
		if err := s.writeLocked(append(existing, fresh...)); err != nil {
			return err
		}
		added = len(fresh)
		return nil
	})
	if err != nil {
		return 0, present, err
	}
	return added, present, nil
}

// Repair replaces an unreadable registry with an empty one, keeping the old
// contents in <path>.corrupt, and creates the file if it is missing.
// A readable registry is left untouched. repaired reports whether a backup was made.
func (s *Store) Repair() (repaired bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.withFileLock(func() error {
		if err := s.initLocked(); err != nil {
			return err
		}
		_, corrupt, err := s.readLocked()
		if err != nil || !corrupt {
			return err
		}
		if err := s.backupLocked(); err != nil {
			return err
		}
		repaired = true
		return s.writeLocked([]model.Developer{})
	})
	return repaired, err
}

// Get returns the developer with the given email.
func (s *Store) Get(email string) (*model.Developer, error) {
	devs, err := s.List()
	if err != nil {
		return nil, err
	}

	for i := range devs {
		if s.sameEmail(devs[i].Email, email) {
			return &devs[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, email)
}

// Exists checks if a developer with the given email is registered.
func (s *Store) Exists(email string) (bool, error) {
	_, err := s.Get(email)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (s *Store) sameEmail(a, b string) bool {
	return s.emailKey(a) == s.emailKey(b)
}

// emailKey is the comparison form of an email.
func (s *Store) emailKey(email string) string {
	if !s.fold {
		return email
	}
	return foldEmail(email)
}

func foldEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}

func complete(d model.Developer) bool {
	return strings.TrimSpace(d.Email) != "" && strings.TrimSpace(d.Name) != ""
}

// prepare returns d as stored locally: no join time, non-nil lists.
func prepare(d model.Developer) model.Developer {
	d.JoinedAt = nil
	if d.Skills == nil {
		d.Skills = []string{}
	}
	if d.Interests == nil {
		d.Interests = []string{}
	}
	return d
}

// withFileLock runs fn while holding the cross-process registry lock
// (caller must hold s.mu).
func (s *Store) withFileLock(fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking developer registry: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	return fn()
}

// loadForWriteLocked returns the current records, creating the file if
// missing and moving an unreadable one aside. After a move the caller must
// write, since the registry file is gone (caller must hold both locks).
func (s *Store) loadForWriteLocked() (devs []model.Developer, movedAside bool, err error) {
	if err := s.initLocked(); err != nil {
		return nil, false, err
	}
	devs, corrupt, err := s.readLocked()
	if err != nil {
		return nil, false, err
	}
	if corrupt {
		if err := s.backupLocked(); err != nil {
			return nil, false, err
		}
	}
	return devs, corrupt, nil
}

// backupLocked moves the registry to <path>.corrupt (caller must hold both locks).
func (s *Store) backupLocked() error {
	backup := s.path + ".corrupt"
	s.logger.Warn("replacing unreadable developer registry", "path", s.path, "backup", backup)
	if err := os.Rename(s.path, backup); err != nil {
		return fmt.Errorf("backing up corrupt registry: %w", err)
	}
	return nil
}

// initLocked creates the registry file if missing (caller must hold both locks).
func (s *Store) initLocked() error {
	info, err := os.Stat(s.path)
	if err == nil {
		if info.IsDir() {
			return fmt.Errorf("developer registry %s is a directory", s.path)
		}
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking developer registry: %w", err)
	}
	return s.writeLocked([]model.Developer{})
}

// readLocked reads the registry. corrupt is true when the file exists but
// does not hold a JSON list of developers.
func (s *Store) readLocked() (devs []model.Developer, corrupt bool, err error) {
	data, err := os.ReadFile(s.path) //nolint:gosec // G304: path from trusted config dir
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Developer{}, false, nil
		}
		return nil, false, fmt.Errorf("reading developer registry: %w", err)
	}

	if err := json.Unmarshal(data, &devs); err != nil {
		return []model.Developer{}, true, nil
	}
	if devs == nil {
		devs = []model.Developer{}
	}
	return devs, false, nil
}

// writeLocked replaces the registry via a temp file and rename so readers never
// observe a partial write (caller must hold both locks).
func (s *Store) writeLocked(devs []model.Developer) error {
	data, err := json.MarshalIndent(devs, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding developer registry: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp registry: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing developer registry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing developer registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing developer registry: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil { //nolint:gosec // G302: registry is not secret
		return fmt.Errorf("setting registry permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing developer registry: %w", err)
	}
	return nil
}
