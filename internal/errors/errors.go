// Package errors provides the semantic error taxonomy shared by the stdio
// tool surface and the HTTP API. Every failure that crosses a dispatch
// boundary is a *StandardError; the surfaces translate it to the uniform
// {error, details?} envelope or an HTTP status without re-inspecting the
// underlying cause.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fredcamaral/gomcp-sdk/protocol"
)

// ErrorCode is a stable semantic error code.
type ErrorCode string

const (
	// Validation: arguments violate a tool or entity schema.
	ErrorCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrorCodeRequiredField ErrorCode = "REQUIRED_FIELD"
	ErrorCodeInvalidValue  ErrorCode = "INVALID_VALUE"

	// Resource errors.
	ErrorCodeNotFound ErrorCode = "NOT_FOUND"
	ErrorCodeConflict ErrorCode = "CONFLICT"

	// System errors.
	ErrorCodeInternal  ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabase  ErrorCode = "DATABASE_ERROR"
	ErrorCodeEmbedding ErrorCode = "EMBEDDING_ERROR"

	// Transport: malformed workspace_id encoding or framing problems.
	ErrorCodeTransport ErrorCode = "TRANSPORT_ERROR"
)

// StandardError is the unified error carried across all surfaces.
type StandardError struct {
	ErrorInfo ErrorDetails `json:"error"`
}

// ErrorDetails holds the code, human message and optional structured detail.
type ErrorDetails struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// FieldDetail describes a single failed field for validation errors.
type FieldDetail struct {
	Field  string      `json:"field"`
	Reason string      `json:"reason"`
	Value  interface{} `json:"value,omitempty"`
}

func (e *StandardError) Error() string { return e.ErrorInfo.Message }

// New creates a StandardError with an arbitrary code.
func New(code ErrorCode, message string, details interface{}) *StandardError {
	return &StandardError{ErrorInfo: ErrorDetails{Code: code, Message: message, Details: details}}
}

// NewValidation reports a field that violates its schema.
func NewValidation(field, reason string, value interface{}) *StandardError {
	return &StandardError{ErrorInfo: ErrorDetails{
		Code:    ErrorCodeValidation,
		Message: fmt.Sprintf("validation failed for field '%s': %s", field, reason),
		Details: FieldDetail{Field: field, Reason: reason, Value: value},
	}}
}

// NewRequiredField reports a missing required field.
func NewRequiredField(field string) *StandardError {
	return &StandardError{ErrorInfo: ErrorDetails{
		Code:    ErrorCodeRequiredField,
		Message: fmt.Sprintf("required field '%s' is missing", field),
		Details: FieldDetail{Field: field, Reason: "missing_required_field"},
	}}
}

// NewNotFound reports a row addressed by primary or natural key that
// does not exist.
func NewNotFound(entity string, key interface{}) *StandardError {
	return &StandardError{ErrorInfo: ErrorDetails{
		Code:    ErrorCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", entity, key),
		Details: map[string]interface{}{"entity": entity, "key": key},
	}}
}

// NewConflict reports a uniqueness violation.
func NewConflict(entity, message string) *StandardError {
	return &StandardError{ErrorInfo: ErrorDetails{
		Code:    ErrorCodeConflict,
		Message: message,
		Details: map[string]interface{}{"entity": entity},
	}}
}

// NewInternal wraps an unrecoverable failure (filesystem, migration,
// database init). The original error text travels in the details.
func NewInternal(message string, cause error) *StandardError {
	details := map[string]interface{}{}
	if cause != nil {
		details["cause"] = cause.Error()
	}
	return &StandardError{ErrorInfo: ErrorDetails{Code: ErrorCodeInternal, Message: message, Details: details}}
}

// NewDatabase wraps a query or transaction failure.
func NewDatabase(message string, cause error) *StandardError {
	e := NewInternal(message, cause)
	e.ErrorInfo.Code = ErrorCodeDatabase
	return e
}

// NewEmbedding wraps an embedding computation or vector-store failure.
func NewEmbedding(message string, cause error) *StandardError {
	e := NewInternal(message, cause)
	e.ErrorInfo.Code = ErrorCodeEmbedding
	return e
}

// NewTransport reports malformed wire-level input, e.g. a workspace ID
// that does not decode as URL-safe base64.
func NewTransport(message string) *StandardError {
	return &StandardError{ErrorInfo: ErrorDetails{Code: ErrorCodeTransport, Message: message}}
}

// WithTraceID returns a copy of the error carrying a trace ID for
// correlation. The receiver is left untouched so shared sentinels stay
// immutable under concurrent use.
func (e *StandardError) WithTraceID(traceID string) *StandardError {
	out := *e
	out.ErrorInfo.TraceID = traceID
	return &out
}

// AsStandard converts any error into a *StandardError, wrapping unknown
// errors as internal.
func AsStandard(err error) *StandardError {
	if err == nil {
		return nil
	}
	var se *StandardError
	if errors.As(err, &se) {
		return se
	}
	return NewInternal(err.Error(), nil)
}

// ToEnvelope renders the uniform tool error envelope {error, details?}.
func (e *StandardError) ToEnvelope() map[string]interface{} {
	env := map[string]interface{}{"error": e.ErrorInfo.Message}
	if e.ErrorInfo.Details != nil {
		env["details"] = e.ErrorInfo.Details
	}
	return env
}

// ToJSONRPCError maps the semantic code onto a JSON-RPC error response.
func (e *StandardError) ToJSONRPCError(id interface{}) *protocol.JSONRPCResponse {
	var rpcCode int
	switch e.ErrorInfo.Code {
	case ErrorCodeValidation, ErrorCodeRequiredField, ErrorCodeInvalidValue, ErrorCodeTransport:
		rpcCode = -32602 // invalid params
	case ErrorCodeNotFound:
		rpcCode = -32001
	case ErrorCodeConflict:
		rpcCode = -32002
	default:
		rpcCode = -32603 // internal error
	}
	return &protocol.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &protocol.JSONRPCError{
			Code:    rpcCode,
			Message: e.ErrorInfo.Message,
			Data:    e,
		},
	}
}

// ToHTTPStatus maps the semantic code onto an HTTP status.
func (e *StandardError) ToHTTPStatus() int {
	switch e.ErrorInfo.Code {
	case ErrorCodeValidation, ErrorCodeRequiredField, ErrorCodeInvalidValue, ErrorCodeTransport:
		return http.StatusBadRequest
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteHTTP writes the error as a JSON HTTP response.
func (e *StandardError) WriteHTTP(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	if e.ErrorInfo.TraceID != "" {
		w.Header().Set("X-Trace-ID", e.ErrorInfo.TraceID)
	}
	w.WriteHeader(e.ToHTTPStatus())
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	_, _ = w.Write(data)
}

// IsValidation reports whether err is a validation-kind error.
func IsValidation(err error) bool {
	se := AsStandard(err)
	return se != nil && (se.ErrorInfo.Code == ErrorCodeValidation ||
		se.ErrorInfo.Code == ErrorCodeRequiredField ||
		se.ErrorInfo.Code == ErrorCodeInvalidValue)
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	se := AsStandard(err)
	return se != nil && se.ErrorInfo.Code == ErrorCodeNotFound
}

// IsConflict reports whether err is a uniqueness conflict.
func IsConflict(err error) bool {
	se := AsStandard(err)
	return se != nil && se.ErrorInfo.Code == ErrorCodeConflict
}

// Predefined errors for the most common argument failures.
var (
	ErrWorkspaceIDRequired = NewRequiredField("workspace_id")
	ErrQueryRequired       = NewRequiredField("query_term")
)
