package model

import (
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivityTypeCall    ActivityType = "call"
	ActivityTypeEmail   ActivityType = "email"
	ActivityTypeMeeting ActivityType = "meeting"
	ActivityTypeTask    ActivityType = "task"
	ActivityTypeNote    ActivityType = "note"
)

// Activity is a CRM timeline entry attached to a lead or an opportunity
// (at least one of the two).
type Activity struct {
	Base
	Type          ActivityType `json:"type" db:"type"`
	Subject       string       `json:"subject" db:"subject"`
	Notes         string       `json:"notes" db:"notes"`
	LeadID        *uuid.UUID   `json:"lead_id,omitempty" db:"lead_id"`
	OpportunityID *uuid.UUID   `json:"opportunity_id,omitempty" db:"opportunity_id"`
	AssignedTo    *uuid.UUID   `json:"assigned_to,omitempty" db:"assigned_to"`
	DueAt         *time.Time   `json:"due_at,omitempty" db:"due_at"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
}

type CreateActivityRequest struct {
	Type          ActivityType `json:"type" binding:"required,oneof=call email meeting task note"`
	Subject       string       `json:"subject" binding:"required,max=200"`
	Notes         string       `json:"notes"`
	LeadID        string       `json:"lead_id" binding:"omitempty,uuid"`
	OpportunityID string       `json:"opportunity_id" binding:"omitempty,uuid"`
	AssignedTo    string       `json:"assigned_to" binding:"omitempty,uuid"`
	DueAt         *time.Time   `json:"due_at"`
}

type UpdateActivityRequest struct {
	Subject    *string    `json:"subject" binding:"omitempty,max=200"`
	Notes      *string    `json:"notes"`
	AssignedTo *string    `json:"assigned_to" binding:"omitempty,uuid"`
	DueAt      *time.Time `json:"due_at"`
}

type ActivityFilter struct {
	Pagination
	Type          string `form:"type"`
	LeadID        string `form:"lead_id"`
	OpportunityID string `form:"opportunity_id"`
	Pending       *bool  `form:"pending"`
}
