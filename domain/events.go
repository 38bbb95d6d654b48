package domain

import (
	"context"
	"time"
)

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Phone verification events
	PhoneOTPRequestEvent  AuditEventType = "PHONE_OTP_REQUESTED"
	PhoneOTPFallbackEvent AuditEventType = "PHONE_OTP_PROVIDER_FALLBACK"
	PhoneOTPVerifyEvent   AuditEventType = "PHONE_OTP_VERIFIED"
	PhoneOTPFailureEvent  AuditEventType = "PHONE_OTP_VERIFICATION_FAILED"

	// Authentication events
	LoginEvent          AuditEventType = "LOGIN"
	LoginFailureEvent   AuditEventType = "LOGIN_FAILED"
	AccountLockedEvent  AuditEventType = "ACCOUNT_LOCKED"
	RegistrationEvent   AuditEventType = "REGISTERED"
	LogoutEvent         AuditEventType = "LOGOUT"
	TokenRefreshEvent   AuditEventType = "TOKEN_REFRESHED"
	PasswordResetEvent  AuditEventType = "PASSWORD_RESET"
	PasswordChangeEvent AuditEventType = "PASSWORD_CHANGED"
	PasswordMigrated    AuditEventType = "PASSWORD_MIGRATED"

	// Administration events
	WorkerStatusEvent   AuditEventType = "WORKER_STATUS_CHANGED"
	WorkerVerifiedEvent AuditEventType = "WORKER_VERIFIED_CHANGED"
	AccessDeniedEvent   AuditEventType = "ACCESS_DENIED"
)

// AuditEvent represents a security-relevant event
type AuditEvent struct {
	EventType  AuditEventType         `json:"event_type"`
	IdentityID string                 `json:"identity_id,omitempty"`
	Kind       IdentityKind           `json:"kind,omitempty"`
	Phone      string                 `json:"phone,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	IPAddress  string                 `json:"ip_address,omitempty"`
	ErrorMsg   string                 `json:"error_msg,omitempty"`
	Success    bool                   `json:"success"`
}

// AuditLogger records audit events
type AuditLogger interface {
	LogEvent(ctx context.Context, event *AuditEvent)
}

// NewAuditEvent creates a new audit event with common fields populated
func NewAuditEvent(eventType AuditEventType, kind IdentityKind, identityID string) *AuditEvent {
	return &AuditEvent{
		EventType:  eventType,
		IdentityID: identityID,
		Kind:       kind,
		Timestamp:  time.Now().UTC(),
		Metadata:   make(map[string]interface{}),
		Success:    true,
	}
}

// WithError sets error information on the audit event
func (e *AuditEvent) WithError(err error) *AuditEvent {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithPhone sets the phone field
func (e *AuditEvent) WithPhone(phone string) *AuditEvent {
	e.Phone = phone
	return e
}

// WithIP sets the client address
func (e *AuditEvent) WithIP(ip string) *AuditEvent {
	e.IPAddress = ip
	return e
}

// WithMetadata adds metadata to the event
func (e *AuditEvent) WithMetadata(key string, value interface{}) *AuditEvent {
	e.Metadata[key] = value
	return e
}
