package coordinator

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sirily23/udicti-cli/internal/directory"
	"github.com/Sirily23/udicti-cli/internal/model"
	"github.com/Sirily23/udicti-cli/internal/registry"
	"github.com/Sirily23/udicti-cli/internal/telemetry"
)

// State is a step of a registration attempt.
type State string

const (
	StateIdle             State = "idle"
	StateValidating       State = "validating"
	StateRemoteSubmitting State = "remote_submitting"
	StateLocalPersisting  State = "local_persisting"
	StateDone             State = "done"
	StatePartialFailure   State = "partial_failure"
	StateFailed           State = "failed"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateDone || s == StatePartialFailure || s == StateFailed
}

// Registration is the outcome of one Register call.
type Registration struct {
	Developer model.Developer
	State     State

	// Trace lists every state entered, starting with StateIdle.
	Trace []State

	Remote    *directory.SubmitResult
	RemoteErr error
	LocalErr  error

	// Warnings are user-facing notes about a partial outcome.
	Warnings []string
}

// RemoteOK reports whether the directory accepted the submission.
func (r *Registration) RemoteOK() bool {
	return r.Remote != nil && r.RemoteErr == nil
}

// LocalOK reports whether a new local copy was written.
func (r *Registration) LocalOK() bool {
	return r.LocalErr == nil && (r.State == StateDone || r.State == StatePartialFailure)
}

// AlreadyLocal reports whether the local add hit an existing record.
func (r *Registration) AlreadyLocal() bool {
	return errors.Is(r.LocalErr, registry.ErrDuplicateRecord)
}

func (r *Registration) enter(s State) {
	r.State = s
	r.Trace = append(r.Trace, s)
}

// Register submits a developer to the directory and caches it locally.
//
// The local add runs whatever the remote outcome. A local failure after a
// remote success is not rolled back; it ends in StatePartialFailure, as does
// the reverse. When both sides fail the result is StateFailed. None of these
// are returned as errors: the only error is a *model.ValidationError, in which
// case nothing was sent or written.
func (c *Coordinator) Register(ctx context.Context, d model.Developer) (*Registration, error) {
	r := &Registration{}
	r.enter(StateIdle)

	r.enter(StateValidating)
	d = d.Normalized()
	d.JoinedAt = nil
	r.Developer = d
	if err := d.Validate(); err != nil {
		r.enter(StateFailed)
		return r, err
	}

	r.enter(StateRemoteSubmitting)
	if c.remote == nil {
		r.RemoteErr = fmt.Errorf("submit developer: %w", directory.ErrUnavailable)
	} else {
		res, err := c.remote.SubmitDeveloper(ctx, d)
		r.Remote, r.RemoteErr = res, err
	}
	if r.RemoteErr != nil {
		c.logger.Debug("remote submission failed", "email", d.Email, "err", r.RemoteErr)
	}

	r.enter(StateLocalPersisting)
	var localWarning string
	if _, err := c.local.Add(d); err != nil {
		r.LocalErr = err
		if errors.Is(err, registry.ErrDuplicateRecord) {
			localWarning = AlreadyRegisteredLocally
		} else {
			c.logger.Warn("saving developer locally", "email", d.Email, "err", err)
			localWarning = "could not save a local copy"
		}
	}

	// Remote warning is worded by the local outcome.
	switch {
	case r.RemoteErr != nil && r.LocalErr == nil:
		r.Warnings = append(r.Warnings, RemoteUnreachableSavedLocally)
	case r.RemoteErr != nil:
		r.Warnings = append(r.Warnings, RemoteUnreachable)
	}
	if localWarning != "" {
		r.Warnings = append(r.Warnings, localWarning)
	}

	switch {
	case r.RemoteErr == nil && r.LocalErr == nil:
		r.enter(StateDone)
	case r.RemoteErr != nil && r.LocalErr != nil:
		r.enter(StateFailed)
	default:
		r.enter(StatePartialFailure)
	}

	event := telemetry.EventOnboardingCompleted
	if r.State == StateFailed {
		event = telemetry.EventOnboardingFailed
	}
	c.emitter.Emit(event, map[string]any{
		"state":         string(r.State),
		"remote_ok":     r.RemoteOK(),
		"has_skills":    len(d.Skills) > 0,
		"has_interests": len(d.Interests) > 0,
	})

	return r, nil
}
