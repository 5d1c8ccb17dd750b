package model

import (
	"time"

	"github.com/google/uuid"
)

type OpportunityStage string

const (
	StageProspecting   OpportunityStage = "prospecting"
	StageQualification OpportunityStage = "qualification"
	StageProposal      OpportunityStage = "proposal"
	StageNegotiation   OpportunityStage = "negotiation"
	StageClosedWon     OpportunityStage = "closed_won"
	StageClosedLost    OpportunityStage = "closed_lost"
)

// StageProbabilities maps pipeline stages to their win probability.
var StageProbabilities = map[OpportunityStage]int{
	StageProspecting:   10,
	StageQualification: 25,
	StageProposal:      50,
	StageNegotiation:   75,
	StageClosedWon:     100,
	StageClosedLost:    0,
}

// OpenStages lists stages counted in the active pipeline.
var OpenStages = []OpportunityStage{
	StageProspecting, StageQualification, StageProposal, StageNegotiation,
}

// IsClosed reports whether the stage is terminal.
func (s OpportunityStage) IsClosed() bool {
	return s == StageClosedWon || s == StageClosedLost
}

const DefaultMaxDaysInStage = 30

// Opportunity is a qualified sales prospect moving through the pipeline.
// probability_percent and forecast_value are derived from the stage table and
// recomputed on every stage or value change; rotting is computed on read.
type Opportunity struct {
	Base
	LeadID             uuid.UUID        `json:"lead_id" db:"lead_id"`
	Name               string           `json:"name" db:"name"`
	Stage              OpportunityStage `json:"stage" db:"stage"`
	ExpectedValue      float64          `json:"expected_value" db:"expected_value"`
	ProbabilityPercent int              `json:"probability_percent" db:"probability_percent"`
	ForecastValue      float64          `json:"forecast_value" db:"forecast_value"`
	StageEnteredAt     time.Time        `json:"stage_entered_at" db:"stage_entered_at"`
	MaxDaysInStage     int              `json:"max_days_in_stage" db:"max_days_in_stage"`
	OwnerID            *uuid.UUID       `json:"owner_id,omitempty" db:"owner_id"`

	// Rotting is not persisted; it is derived from stage_entered_at on read.
	Rotting bool `json:"rotting" db:"-"`
}

// IsRotting reports whether an open opportunity has sat in its stage longer
// than max_days_in_stage as of now.
func (o *Opportunity) IsRotting(now time.Time) bool {
	if o.Stage.IsClosed() {
		return false
	}
	return now.Sub(o.StageEnteredAt) > time.Duration(o.MaxDaysInStage)*24*time.Hour
}

type CreateOpportunityRequest struct {
	LeadID         string  `json:"lead_id" binding:"required,uuid"`
	Name           string  `json:"name" binding:"required,max=200"`
	ExpectedValue  float64 `json:"expected_value" binding:"gte=0"`
	MaxDaysInStage int     `json:"max_days_in_stage" binding:"omitempty,gt=0"`
}

type UpdateOpportunityRequest struct {
	Name           *string           `json:"name" binding:"omitempty,max=200"`
	Stage          *OpportunityStage `json:"stage" binding:"omitempty,oneof=prospecting qualification proposal negotiation closed_won closed_lost"`
	ExpectedValue  *float64          `json:"expected_value" binding:"omitempty,gte=0"`
	MaxDaysInStage *int              `json:"max_days_in_stage" binding:"omitempty,gt=0"`
	OwnerID        *string           `json:"owner_id" binding:"omitempty,uuid"`
}

type OpportunityFilter struct {
	Pagination
	Stage   string `form:"stage"`
	LeadID  string `form:"lead_id"`
	Rotting *bool  `form:"rotting"`

	// RottingAsOf is the cutoff the repository compares stage_entered_at
	// against when Rotting is set. The service stamps it so the SQL filter
	// agrees with IsRotting.
	RottingAsOf time.Time `form:"-"`
}

// PipelineStageSummary is one row of the pipeline dashboard.
type PipelineStageSummary struct {
	Stage         OpportunityStage `json:"stage" db:"stage"`
	Count         int              `json:"count" db:"count"`
	TotalExpected float64          `json:"total_expected" db:"total_expected"`
	TotalForecast float64          `json:"total_forecast" db:"total_forecast"`
	RottingCount  int              `json:"rotting_count" db:"rotting_count"`
}
