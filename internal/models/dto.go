package models

import "time"

// ===== VALIDATION RESPONSES =====

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value"`
	Code    string `json:"code"`
}

// ===== CERTIFICATE VERIFICATION =====

// CertificateVerification is the public projection returned by the
// unauthenticated verification endpoint. It deliberately omits the owning
// user's record.
type CertificateVerification struct {
	CertificateID string              `json:"certificate_id"`
	Title         string              `json:"title"`
	Category      ModuleCategory      `json:"category"`
	Status        CertificationStatus `json:"status"`
	IssuedAt      time.Time           `json:"issued_at"`
	ExpiresAt     *time.Time          `json:"expires_at,omitempty"`
	IssuedBy      string              `json:"issued_by"`
}

// ===== ERROR RESPONSES =====

type ErrorResponse struct {
	Error            string                    `json:"error"`
	Message          string                    `json:"message"`
	Code             string                    `json:"code,omitempty"`
	Details          interface{}               `json:"details,omitempty"`
	Timestamp        time.Time                 `json:"timestamp"`
	Path             string                    `json:"path,omitempty"`
	ValidationErrors []ValidationErrorResponse `json:"validation_errors,omitempty"`
}

type SuccessResponse struct {
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
