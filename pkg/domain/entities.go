// Package domain defines the core persistent entities, value types, and
// identifier primitives used by taskcore.
package domain

import "time"

// TaskOrigin identifies the provenance of a task record.
type TaskOrigin string

// Recognised task origins. Origin is immutable once a task is created.
const (
	// OriginFactor marks a task cloned into a project from a canonical
	// success-factor definition.
	OriginFactor TaskOrigin = "factor"
	// OriginCustom marks a user-authored task.
	OriginCustom TaskOrigin = "custom"
)

// Stage represents the workflow phase a task belongs to. Together with the
// project and source identifiers it forms the natural key that prevents
// duplicate seeding.
type Stage string

// Canonical workflow stages.
const (
	StageIdentification Stage = "identification"
	StageDefinition     Stage = "definition"
	StageDelivery       Stage = "delivery"
)

// KnownStage reports whether the stage is one of the canonical values.
func KnownStage(s Stage) bool {
	switch s {
	case StageIdentification, StageDefinition, StageDelivery:
		return true
	}
	return false
}

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Task is a project-scoped unit of work. Task IDs are unique within a
// project but not globally; legacy rows may carry compound identifiers
// (a UUID decorated with an extraneous suffix).
type Task struct {
	Base
	ProjectID string     `json:"project_id"`
	Origin    TaskOrigin `json:"origin"`
	SourceID  string     `json:"source_id,omitempty"`
	Stage     Stage      `json:"stage,omitempty"`
	Text      string     `json:"text"`
	Notes     string     `json:"notes,omitempty"`
	Priority  int        `json:"priority,omitempty"`
	Owner     string     `json:"owner,omitempty"`
	Status    string     `json:"status,omitempty"`
	Completed bool       `json:"completed"`
}

// CanonicalFactor is a shared, project-independent template task definition.
// Factor definitions are read-only reference data from the core's
// perspective; seeding clones them into factor-origin tasks.
type CanonicalFactor struct {
	ID    string `json:"id"`
	Stage Stage  `json:"stage"`
	Text  string `json:"text"`
}

// MatchStrategy names the resolver step that located a task.
type MatchStrategy string

// Resolver match strategies, in the order they are attempted.
const (
	MatchID              MatchStrategy = "id"
	MatchSourceID        MatchStrategy = "source_id"
	MatchCanonicalID     MatchStrategy = "canonical_id"
	MatchCanonicalSource MatchStrategy = "canonical_source_id"
)

// Warning flags a data-quality condition observed during resolution, such as
// multiple candidates for a natural key that should be unique.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WarnDuplicateMatch marks a resolution where more than one task matched the
// same identifier within a single project.
const WarnDuplicateMatch = "duplicate_match"

// Resolution is the outcome of a successful task lookup.
type Resolution struct {
	Task     Task          `json:"task"`
	Strategy MatchStrategy `json:"strategy"`
	Warnings []Warning     `json:"warnings,omitempty"`
}

// SeedFailure records one canonical factor that could not be seeded.
type SeedFailure struct {
	FactorID string `json:"factor_id"`
	Stage    Stage  `json:"stage"`
	Reason   string `json:"reason"`
}

// SeedReport summarises one ensureSeeded pass over a project. Seeding is
// additive and re-runnable; individual failures never abort the batch.
type SeedReport struct {
	ProjectID string        `json:"project_id"`
	Seeded    int           `json:"seeded"`
	Skipped   int           `json:"skipped"`
	Failures  []SeedFailure `json:"failures,omitempty"`
	At        time.Time     `json:"at"`
}

// Ok reports whether every factor in the batch was seeded or already present.
func (r SeedReport) Ok() bool {
	return len(r.Failures) == 0
}
