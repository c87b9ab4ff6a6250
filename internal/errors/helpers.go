package errors

import (
	"fmt"
)

// Common error creators for frequent use cases

// NewConfigError creates a configuration error
func NewConfigError(key, message string) *AppError {
	return New(ErrCodeInvalidConfig, message).
		WithContext("config_key", key).
		WithUserMessage("Configuration error")
}

// NewStoreError creates a store error with operation context
func NewStoreError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeStoreQuery, fmt.Sprintf("store %s failed", operation)).
		WithContext("operation", operation).
		WithUserMessage("Storage operation failed")
}

// NewProviderError creates an error for a failed channel provider call.
// 5xx, 429 and 408 responses are marked retryable.
func NewProviderError(channel, endpoint string, statusCode int, err error) *AppError {
	appErr := Wrap(err, ErrCodeProviderAPI, fmt.Sprintf("%s provider call failed", channel)).
		WithContext("channel", channel).
		WithContext("endpoint", endpoint).
		WithContext("status_code", statusCode)

	if statusCode >= 500 || statusCode == 429 || statusCode == 408 {
		appErr.Retryable = true
	}

	return appErr
}

// NewNormalizationError creates an error for an unparseable inbound payload
func NewNormalizationError(channel string, err error) *AppError {
	return Wrap(err, ErrCodeNormalization, "failed to normalize inbound payload").
		WithContext("channel", channel).
		WithUserMessage("Malformed webhook payload")
}

// NewGenerationError creates an error for a failed AI generation
func NewGenerationError(agentID string, err error) *AppError {
	return Wrap(err, ErrCodeGeneration, "response generation failed").
		WithContext("agent_id", agentID).
		WithUserMessage("Automatic reply could not be generated")
}

// NewNotFoundError creates a not found error with resource context
func NewNotFoundError(resource, identifier string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithContext("resource", resource).
		WithContext("identifier", identifier).
		WithUserMessage(fmt.Sprintf("%s not found", resource))
}

// NewValidationError creates a validation error with field context
func NewValidationError(field, value, message string) *AppError {
	return New(ErrCodeInvalidInput, message).
		WithContext("field", field).
		WithContext("value", value).
		WithUserMessage(fmt.Sprintf("Invalid %s: %s", field, message))
}
