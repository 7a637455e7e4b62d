package authcore

import (
	"context"
	"errors"
)

const (
	auditEventRegister             = "register"
	auditEventLoginSuccess         = "login_success"
	auditEventLoginFailure         = "login_failure"
	auditEventSecondFactorRequired = "second_factor_required"
	auditEventSecondFactorSuccess  = "second_factor_success"
	auditEventSecondFactorFailure  = "second_factor_failure"
	auditEventLogout               = "logout"
	auditEventTokenRejected        = "token_rejected"
)

// AuditErrorCode is the stable, detail-free reason recorded in
// AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrInvalidFormat      AuditErrorCode = "invalid_format"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrInvalidCode        AuditErrorCode = "invalid_code"
	auditErrChallengeNotFound  AuditErrorCode = "challenge_not_found"
	auditErrMissingToken       AuditErrorCode = "missing_token"
	auditErrMalformedToken     AuditErrorCode = "malformed_token"
	auditErrBadSignature       AuditErrorCode = "bad_signature"
	auditErrExpiredToken       AuditErrorCode = "expired_token"
	auditErrRevokedToken       AuditErrorCode = "revoked_token"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrDeliveryFailed     AuditErrorCode = "delivery_failed"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subject string,
	attemptID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		Type:      eventType,
		Identity:  subject,
		AttemptID: attemptID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidFormat):
		return auditErrInvalidFormat
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrInvalidCode):
		return auditErrInvalidCode
	case errors.Is(err, ErrChallengeNotFound):
		return auditErrChallengeNotFound
	case errors.Is(err, ErrMissingToken):
		return auditErrMissingToken
	case errors.Is(err, ErrMalformedToken):
		return auditErrMalformedToken
	case errors.Is(err, ErrBadSignature):
		return auditErrBadSignature
	case errors.Is(err, ErrExpiredToken):
		return auditErrExpiredToken
	case errors.Is(err, ErrRevokedToken):
		return auditErrRevokedToken
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrDeliveryFailed):
		return auditErrDeliveryFailed
	case errors.Is(err, ErrBackendUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
