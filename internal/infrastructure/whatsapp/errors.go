package whatsapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
)

// Reason is the closed set of delivery failure causes callers may branch
// on. Provider error codes are mapped here once, at the boundary.
type Reason string

const (
	ReasonAuthExpired         Reason = "auth_expired"
	ReasonRecipientNotAllowed Reason = "recipient_not_allowed"
	ReasonPermissionDenied    Reason = "permission_denied"
	ReasonBadRequest          Reason = "bad_request"
	ReasonTransient           Reason = "transient"
	ReasonUnknown             Reason = "unknown"
)

// APIError is a classified messaging platform failure.
type APIError struct {
	Reason  Reason `json:"reason"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp: %s (%s)", e.Message, e.Reason)
}

// providerError is the error envelope the platform returns.
type providerError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
		Details string `json:"error_data,omitempty"`
	} `json:"error"`
}

// classifyResponse maps a non-2xx provider response onto a Reason.
func classifyResponse(status int, body []byte) *APIError {
	var pe providerError
	msg := fmt.Sprintf("provider returned HTTP %d", status)
	code := 0
	if err := json.Unmarshal(body, &pe); err == nil && pe.Error.Message != "" {
		msg = pe.Error.Message
		code = pe.Error.Code
	}

	reason := ReasonUnknown
	switch {
	case code == 190 || status == 401:
		// Expired or invalidated access token; needs manual remediation.
		reason = ReasonAuthExpired
	case code == 131030:
		// Recipient not in the allowed list (sandbox/unverified numbers).
		reason = ReasonRecipientNotAllowed
	case code == 10 || (code >= 200 && code <= 299) || status == 403:
		reason = ReasonPermissionDenied
	case code == 100 || code == 131026 || status == 400:
		reason = ReasonBadRequest
	case status >= 500:
		reason = ReasonTransient
	}

	return &APIError{Reason: reason, Code: code, Message: msg}
}

// classifyTransport maps a transport-level failure (timeout, refused
// connection) onto a Reason. Timeouts are transient and never retried here.
func classifyTransport(err error) *APIError {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &APIError{Reason: ReasonTransient, Message: "request timed out: " + err.Error()}
	}
	return &APIError{Reason: ReasonTransient, Message: "network failure: " + err.Error()}
}
