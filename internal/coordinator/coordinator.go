// Package coordinator reconciles the local developer registry with the remote
// directory. The remote directory is the system of record (upsert by email);
// the local registry is an insert-only cache that keeps the CLI usable offline.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Sirily23/udicti-cli/internal/directory"
	"github.com/Sirily23/udicti-cli/internal/model"
	"github.com/Sirily23/udicti-cli/internal/telemetry"
)

// Registration warnings.
const (
	// AlreadyRegisteredLocally is shown when the local copy already exists.
	AlreadyRegisteredLocally = "already registered locally"

	RemoteUnreachableSavedLocally = "could not reach the UDICTI directory; saved locally only"
	RemoteUnreachable             = "could not reach the UDICTI directory"
)

// LocalStore is the subset of the registry the coordinator needs.
type LocalStore interface {
	List() ([]model.Developer, error)
	Add(d model.Developer) (model.Developer, error)
	AddMissing(devs []model.Developer) (added, present int, err error)
}

// Directory is the subset of the directory client the coordinator needs.
type Directory interface {
	FetchDevelopers(ctx context.Context) ([]model.Developer, error)
	SubmitDeveloper(ctx context.Context, d model.Developer) (*directory.SubmitResult, error)
}

// Coordinator orchestrates a command's view of developer data.
type Coordinator struct {
	local   LocalStore
	remote  Directory
	emitter *telemetry.Emitter
	logger  *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithEmitter reports registration and sync outcomes as telemetry events.
func WithEmitter(e *telemetry.Emitter) Option {
	return func(c *Coordinator) {
		c.emitter = e
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Coordinator. remote may be nil for offline-only operation.
func New(local LocalStore, remote Directory, opts ...Option) *Coordinator {
	c := &Coordinator{
		local:  local,
		remote: remote,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source says where a listing came from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Listing is the result of ListDevelopers.
type Listing struct {
	Developers []model.Developer
	Source     Source

	// Stale is set when the remote directory could not be reached and the
	// developers come from the local cache.
	Stale bool

	// RemoteErr is why the remote directory was not used, if it wasn't.
	RemoteErr error

	// Backfilled counts remote records newly cached locally.
	Backfilled int
}

// ListDevelopers returns the developer directory. With preferRemote, the remote
// directory is tried first and the local registry is the fallback; otherwise
// only the local registry is read. It fails only when no source can answer.
func (c *Coordinator) ListDevelopers(ctx context.Context, preferRemote bool) (*Listing, error) {
	var remoteErr error
	if preferRemote && c.remote != nil {
		devs, err := c.remote.FetchDevelopers(ctx)
		if err == nil {
			added, _ := c.backfill(devs)
			return &Listing{Developers: devs, Source: SourceRemote, Backfilled: added}, nil
		}
		remoteErr = err
		c.logger.Debug("remote directory unavailable, using local registry", "err", err)
	}

	devs, err := c.local.List()
	if err != nil {
		if remoteErr != nil {
			return nil, fmt.Errorf("listing developers: %w", errors.Join(remoteErr, err))
		}
		return nil, fmt.Errorf("listing developers: %w", err)
	}

	return &Listing{
		Developers: devs,
		Source:     SourceLocal,
		Stale:      remoteErr != nil,
		RemoteErr:  remoteErr,
	}, nil
}

// SyncReport summarizes a Sync.
type SyncReport struct {
	Remote  int
	Added   int
	Present int
	Failed  int
}

// Sync copies every remote developer missing from the local registry into it.
// Existing local records are never modified.
func (c *Coordinator) Sync(ctx context.Context) (*SyncReport, error) {
	if c.remote == nil {
		return nil, fmt.Errorf("sync: %w", directory.ErrUnavailable)
	}

	devs, err := c.remote.FetchDevelopers(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}

	report := &SyncReport{Remote: len(devs)}
	added, present, err := c.local.AddMissing(devs)
	report.Added, report.Present = added, present
	report.Failed = report.Remote - added - present
	if err != nil {
		c.logger.Warn("could not cache developers", "err", err)
	}

	c.emitter.Emit(telemetry.EventSyncCompleted, map[string]any{
		"remote": report.Remote,
		"added":  report.Added,
	})
	return report, nil
}

// backfill inserts remote records the local registry lacks. Failures are
// logged: the listing itself already succeeded.
func (c *Coordinator) backfill(devs []model.Developer) (int, error) {
	added, _, err := c.local.AddMissing(devs)
	if err != nil {
		c.logger.Debug("backfilling local registry", "err", err)
		return added, err
	}
	return added, nil
}
