package model

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
	ChannelPush  NotificationChannel = "push"
)

var validChannels = map[NotificationChannel]bool{
	ChannelEmail: true,
	ChannelSMS:   true,
	ChannelPush:  true,
}

func (c NotificationChannel) Valid() bool {
	return validChannels[c]
}

type TemplateStatus string

const (
	TemplateStatusActive   TemplateStatus = "active"
	TemplateStatusInactive TemplateStatus = "inactive"
)

// TemplateCodePattern constrains template codes: lowercase + underscore,
// at most 100 chars.
var TemplateCodePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,99}$`)

// NotificationTemplate holds the localized content for one (code, channel)
// pair. The pair is unique among non-deleted rows. Templates are soft-deleted
// only: past notification logs reference them by code+channel.
type NotificationTemplate struct {
	Base
	TemplateCode        string              `json:"template_code" db:"template_code"`
	Channel             NotificationChannel `json:"channel" db:"channel"`
	Description         string              `json:"description" db:"description"`
	SubjectTranslations TranslationMap      `json:"subject_translations" db:"subject_translations"`
	BodyTranslations    TranslationMap      `json:"body_translations" db:"body_translations"`
	SupportedCountries  pq.StringArray      `json:"supported_countries" db:"supported_countries"`
	SupportedLocales    pq.StringArray      `json:"supported_locales" db:"supported_locales"`
	Variables           pq.StringArray      `json:"variables" db:"variables"`
	Status              TemplateStatus      `json:"status" db:"status"`
}

// SupportsCountry reports whether the template serves the country; an empty
// list means no restriction.
func (t *NotificationTemplate) SupportsCountry(code string) bool {
	if code == "" || len(t.SupportedCountries) == 0 {
		return true
	}
	for _, c := range t.SupportedCountries {
		if c == code {
			return true
		}
	}
	return false
}

// SupportsLocale reports whether the template serves the locale; an empty
// list means no restriction.
func (t *NotificationTemplate) SupportsLocale(locale string) bool {
	if locale == "" || len(t.SupportedLocales) == 0 {
		return true
	}
	for _, l := range t.SupportedLocales {
		if l == locale {
			return true
		}
	}
	return false
}

type CreateTemplateRequest struct {
	TemplateCode        string              `json:"template_code" binding:"required,template_code"`
	Channel             NotificationChannel `json:"channel" binding:"required,oneof=email sms push"`
	Description         string              `json:"description"`
	SubjectTranslations map[string]string   `json:"subject_translations" binding:"required"`
	BodyTranslations    map[string]string   `json:"body_translations" binding:"required"`
	SupportedCountries  []string            `json:"supported_countries"`
	SupportedLocales    []string            `json:"supported_locales"`
	Variables           []string            `json:"variables"`
}

type UpdateTemplateRequest struct {
	Description         *string           `json:"description"`
	SubjectTranslations map[string]string `json:"subject_translations"`
	BodyTranslations    map[string]string `json:"body_translations"`
	SupportedCountries  []string          `json:"supported_countries"`
	SupportedLocales    []string          `json:"supported_locales"`
	Variables           []string          `json:"variables"`
	Status              *string           `json:"status" binding:"omitempty,oneof=active inactive"`
}

type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "pending"
	NotificationStatusSent      NotificationStatus = "sent"
	NotificationStatusDelivered NotificationStatus = "delivered"
	NotificationStatusOpened    NotificationStatus = "opened"
	NotificationStatusClicked   NotificationStatus = "clicked"
	NotificationStatusBounced   NotificationStatus = "bounced"
	NotificationStatusFailed    NotificationStatus = "failed"
)

// statusRank orders the delivery lifecycle. Webhook updates may only move a
// log forward along this order; bounced/failed are terminal side-tracks.
var statusRank = map[NotificationStatus]int{
	NotificationStatusPending:   0,
	NotificationStatusSent:      1,
	NotificationStatusDelivered: 2,
	NotificationStatusOpened:    3,
	NotificationStatusClicked:   4,
	NotificationStatusBounced:   5,
	NotificationStatusFailed:    5,
}

// Rank returns the lifecycle position of the status.
func (s NotificationStatus) Rank() int {
	return statusRank[s]
}

// NotificationLog is one send attempt. Append-only: created at send time,
// mutated only by provider webhooks, never deleted.
type NotificationLog struct {
	Base
	TemplateCode   string              `json:"template_code" db:"template_code"`
	Channel        NotificationChannel `json:"channel" db:"channel"`
	RecipientID    *uuid.UUID          `json:"recipient_id,omitempty" db:"recipient_id"`
	RecipientEmail string              `json:"recipient_email" db:"recipient_email"`
	ExternalID     string              `json:"external_id" db:"external_id"`
	Subject        string              `json:"subject" db:"subject"`
	Locale         string              `json:"locale" db:"locale"`
	Status         NotificationStatus  `json:"status" db:"status"`
	ErrorMessage   string              `json:"error_message,omitempty" db:"error_message"`
	SentAt         *time.Time          `json:"sent_at,omitempty" db:"sent_at"`
	DeliveredAt    *time.Time          `json:"delivered_at,omitempty" db:"delivered_at"`
	OpenedAt       *time.Time          `json:"opened_at,omitempty" db:"opened_at"`
	ClickedAt      *time.Time          `json:"clicked_at,omitempty" db:"clicked_at"`
	BouncedAt      *time.Time          `json:"bounced_at,omitempty" db:"bounced_at"`
	FailedAt       *time.Time          `json:"failed_at,omitempty" db:"failed_at"`
}

type SendNotificationRequest struct {
	TemplateCode   string              `json:"template_code" binding:"required,template_code"`
	Channel        NotificationChannel `json:"channel" binding:"required,oneof=email sms push"`
	RecipientEmail string              `json:"recipient_email" binding:"required,email"`
	RecipientID    string              `json:"recipient_id" binding:"omitempty,uuid"`
	LeadID         string              `json:"lead_id" binding:"omitempty,uuid"`
	TenantID       string              `json:"tenant_id" binding:"omitempty,uuid"`
	CountryCode    string              `json:"country_code" binding:"omitempty,len=2"`
	Locale         string              `json:"locale"`
	Data           map[string]string   `json:"data"`
}

type NotificationLogFilter struct {
	Pagination
	Status         string `form:"status"`
	TemplateCode   string `form:"template_code"`
	Channel        string `form:"channel"`
	RecipientEmail string `form:"recipient_email"`
}

// WebhookEventType enumerates the provider's delivery events.
type WebhookEventType string

const (
	WebhookEmailSent      WebhookEventType = "email.sent"
	WebhookEmailDelivered WebhookEventType = "email.delivered"
	WebhookEmailOpened    WebhookEventType = "email.opened"
	WebhookEmailClicked   WebhookEventType = "email.clicked"
	WebhookEmailBounced   WebhookEventType = "email.bounced"
	WebhookEmailFailed    WebhookEventType = "email.failed"
)

// Status maps the event to its target log status; ok is false for unknown
// event types.
func (t WebhookEventType) Status() (NotificationStatus, bool) {
	switch t {
	case WebhookEmailSent:
		return NotificationStatusSent, true
	case WebhookEmailDelivered:
		return NotificationStatusDelivered, true
	case WebhookEmailOpened:
		return NotificationStatusOpened, true
	case WebhookEmailClicked:
		return NotificationStatusClicked, true
	case WebhookEmailBounced:
		return NotificationStatusBounced, true
	case WebhookEmailFailed:
		return NotificationStatusFailed, true
	}
	return "", false
}

// WebhookEvent is the provider's delivery event payload.
type WebhookEvent struct {
	Type WebhookEventType `json:"type" binding:"required"`
	Data struct {
		EmailID   string   `json:"email_id" binding:"required"`
		CreatedAt string   `json:"created_at"`
		From      string   `json:"from"`
		To        []string `json:"to"`
		Subject   string   `json:"subject"`
	} `json:"data" binding:"required"`
}
