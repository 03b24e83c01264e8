package events

import (
	"context"
	"time"
)

// Event types emitted by the platform
const (
	TypeCertificationAwarded    = "certification.awarded"
	TypeCertificationRevoked    = "certification.revoked"
	TypeCertificationRenewed    = "certification.renewed"
	TypeCertificationRenewalDue = "certification.renewal_due"
	TypeUserRoleChanged         = "user.role_changed"
	TypeQuizSubmitted           = "quiz.submitted"
	TypeModuleCompleted         = "module.completed"
)

// EventSource identifies this service in the event envelope
const EventSource = "compliance-service"

// EventVersion is the envelope schema version
const EventVersion = "1.0"

// Event is the envelope published to the broker
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// EventPublisher abstracts the broker so services can be tested without one
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// CertificationEvent is the payload for certification lifecycle events
type CertificationEvent struct {
	CertificationID  uint       `json:"certification_id"`
	CertificateID    string     `json:"certificate_id"`
	UserID           string     `json:"user_id"`
	TemplateID       uint       `json:"template_id"`
	Title            string     `json:"title"`
	Status           string     `json:"status"`
	IssuedBy         string     `json:"issued_by"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	Reason           string     `json:"reason,omitempty"`
	VerificationCode string     `json:"verification_code,omitempty"`
}

// RoleChangedEvent is the payload for user.role_changed
type RoleChangedEvent struct {
	TargetUserID string `json:"target_user_id"`
	PerformedBy  string `json:"performed_by"`
	PreviousRole string `json:"previous_role"`
	NewRole      string `json:"new_role"`
	Reason       string `json:"reason"`
}

// QuizSubmittedEvent is the payload for quiz.submitted
type QuizSubmittedEvent struct {
	UserID     string  `json:"user_id"`
	QuizID     uint    `json:"quiz_id"`
	ResultID   uint    `json:"result_id"`
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
}

// ModuleCompletedEvent is the payload for module.completed
type ModuleCompletedEvent struct {
	UserID           string `json:"user_id"`
	ModuleID         uint   `json:"module_id"`
	CompletionMethod string `json:"completion_method"`
}
