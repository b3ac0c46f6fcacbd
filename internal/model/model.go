// Package model defines the core data types shared by the udicti CLI and backend.
package model

import (
	"errors"
	"strings"
	"time"
)

// Event sources.
const (
	SourceCLI = "cli"
	SourceWeb = "web"
)

// Developer is one registered developer in the directory.
type Developer struct {
	// Name is the display name.
	Name string `json:"name"`

	// Email is the unique identifier for this developer.
	Email string `json:"email"`

	// GitHub is the GitHub handle (not required to be unique).
	GitHub string `json:"github"`

	// Skills the developer listed during onboarding.
	Skills []string `json:"skills"`

	// Interests the developer listed during onboarding.
	Interests []string `json:"interests"`

	// JoinedAt is assigned by the directory server. Nil until the record has
	// been persisted remotely, and never written to the local registry.
	JoinedAt *Timestamp `json:"joined_at,omitempty"`
}

// Normalized returns a copy with trimmed fields and non-nil list fields.
func (d Developer) Normalized() Developer {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	d.GitHub = strings.TrimPrefix(strings.TrimSpace(d.GitHub), "@")
	d.Skills = cleanList(d.Skills)
	d.Interests = cleanList(d.Interests)
	return d
}

// Validate checks that the fields the directory requires are present.
func (d Developer) Validate() error {
	var missing []string
	if strings.TrimSpace(d.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(d.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(d.GitHub) == "" {
		missing = append(missing, "github")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// SplitList parses a comma-separated list as typed at a prompt or flag.
func SplitList(s string) []string {
	return cleanList(strings.Split(s, ","))
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Event is one anonymous usage signal sent to the backend.
type Event struct {
	ID        string         `json:"id,omitempty"`
	Event     string         `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source"`
	Data      map[string]any `json:"data"`
}

// ErrValidation is matched by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports required fields that were missing or blank.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Is makes errors.Is(err, ErrValidation) hold for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
