// Package doctor diagnoses the local udicti installation: configuration, the
// cached developer registry, and connectivity to the directory.
package doctor

import (
	"context"
	"errors"
	"time"

	"github.com/Sirily23/udicti-cli/internal/model"
)

// ErrCannotFix is returned by checks that have no automatic fix.
var ErrCannotFix = errors.New("check does not support auto-fix")

// CheckStatus is the outcome of a check.
type CheckStatus int

const (
	StatusOK CheckStatus = iota
	StatusWarning
	StatusError
)

func (s CheckStatus) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarning:
		return "Warning"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Directory is what the connectivity check needs from the directory client.
type Directory interface {
	FetchDevelopers(ctx context.Context) ([]model.Developer, error)
	BaseURL() string
}

// CheckContext carries what checks inspect.
type CheckContext struct {
	ConfigPath   string
	RegistryPath string
	Directory    Directory

	// Timeout bounds network checks.
	Timeout time.Duration
}

// CheckResult is what a check found.
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	Details []string
	FixHint string
}

// Check is a single diagnostic.
type Check interface {
	Name() string
	Description() string
	Run(ctx *CheckContext) *CheckResult
	Fix(ctx *CheckContext) error
	CanFix() bool
}

// BaseCheck provides the naming part of a Check with no fix.
type BaseCheck struct {
	CheckName        string
	CheckDescription string
}

func (b *BaseCheck) Name() string        { return b.CheckName }
func (b *BaseCheck) Description() string { return b.CheckDescription }
func (b *BaseCheck) CanFix() bool        { return false }

func (b *BaseCheck) Fix(*CheckContext) error { return ErrCannotFix }

// FixableCheck is a BaseCheck whose embedder implements Fix.
type FixableCheck struct {
	BaseCheck
}

func (f *FixableCheck) CanFix() bool { return true }
