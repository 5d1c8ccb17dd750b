package model

import "github.com/google/uuid"

type LeadStatus string

const (
	LeadStatusNew          LeadStatus = "new"
	LeadStatusContacted    LeadStatus = "contacted"
	LeadStatusQualified    LeadStatus = "qualified"
	LeadStatusConverted    LeadStatus = "converted"
	LeadStatusDisqualified LeadStatus = "disqualified"
)

// leadTransitions is the allowed kanban transition table. Converted is
// terminal; disqualified leads can be re-engaged at contacted.
var leadTransitions = map[LeadStatus][]LeadStatus{
	LeadStatusNew:          {LeadStatusContacted, LeadStatusDisqualified},
	LeadStatusContacted:    {LeadStatusQualified, LeadStatusDisqualified},
	LeadStatusQualified:    {LeadStatusConverted, LeadStatusDisqualified},
	LeadStatusConverted:    {},
	LeadStatusDisqualified: {LeadStatusContacted},
}

// CanTransitionTo reports whether a lead may move from s to target.
func (s LeadStatus) CanTransitionTo(target LeadStatus) bool {
	for _, allowed := range leadTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// FleetSizes is the allowed set for the demo-request form.
var FleetSizes = []string{"1-10", "11-50", "51-200", "201-500", "500+"}

// Lead is a CRM prospect. Leads carry no tenant_id: they exist before a
// tenant does and are visible across the sales org.
type Lead struct {
	Base
	CompanyName string     `json:"company_name" db:"company_name"`
	ContactName string     `json:"contact_name" db:"contact_name"`
	Email       string     `json:"email" db:"email"`
	Phone       string     `json:"phone" db:"phone"`
	FleetSize   string     `json:"fleet_size" db:"fleet_size"`
	CountryCode string     `json:"country_code" db:"country_code"`
	Locale      string     `json:"locale" db:"locale"`
	Source      string     `json:"source" db:"source"`
	Status      LeadStatus `json:"status" db:"status"`
	OwnerID     *uuid.UUID `json:"owner_id,omitempty" db:"owner_id"`
	Notes       string     `json:"notes" db:"notes"`
}

type CreateLeadRequest struct {
	CompanyName string `json:"company_name" binding:"required,max=200"`
	ContactName string `json:"contact_name" binding:"required,max=200"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone"`
	FleetSize   string `json:"fleet_size" binding:"required,fleet_size"`
	CountryCode string `json:"country_code" binding:"omitempty,len=2"`
	Locale      string `json:"locale"`
	Source      string `json:"source"`
	Notes       string `json:"notes"`
}

type UpdateLeadRequest struct {
	CompanyName *string `json:"company_name" binding:"omitempty,max=200"`
	ContactName *string `json:"contact_name" binding:"omitempty,max=200"`
	Phone       *string `json:"phone"`
	FleetSize   *string `json:"fleet_size" binding:"omitempty,fleet_size"`
	CountryCode *string `json:"country_code" binding:"omitempty,len=2"`
	Locale      *string `json:"locale"`
	OwnerID     *string `json:"owner_id" binding:"omitempty,uuid"`
	Notes       *string `json:"notes"`
}

type UpdateLeadStatusRequest struct {
	Status LeadStatus `json:"status" binding:"required,oneof=new contacted qualified converted disqualified"`
}

type LeadFilter struct {
	Pagination
	Status      string `form:"status"`
	Source      string `form:"source"`
	CountryCode string `form:"country_code"`
	Search      string `form:"search"`
}
