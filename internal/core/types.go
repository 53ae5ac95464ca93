package core

import "taskcore/pkg/domain"

type (
	Task            = domain.Task
	TaskPatch       = domain.TaskPatch
	TaskOrigin      = domain.TaskOrigin
	Stage           = domain.Stage
	CanonicalFactor = domain.CanonicalFactor
	FactorCatalog   = domain.FactorCatalog
	MatchStrategy   = domain.MatchStrategy
	Resolution      = domain.Resolution
	Warning         = domain.Warning
	SeedFailure     = domain.SeedFailure
	SeedReport      = domain.SeedReport
	TaskStore       = domain.TaskStore
)

const (
	OriginFactor = domain.OriginFactor
	OriginCustom = domain.OriginCustom
)

const (
	StageIdentification = domain.StageIdentification
	StageDefinition     = domain.StageDefinition
	StageDelivery       = domain.StageDelivery
)

const (
	MatchID              = domain.MatchID
	MatchSourceID        = domain.MatchSourceID
	MatchCanonicalID     = domain.MatchCanonicalID
	MatchCanonicalSource = domain.MatchCanonicalSource
)
