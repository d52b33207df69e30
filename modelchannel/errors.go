package modelchannel

import "fmt"

// ChannelError is the base error type for all model channel failures.
type ChannelError struct {
	Message string
	Cause   error
}

func (e *ChannelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ChannelError) Unwrap() error {
	return e.Cause
}

// ProviderError represents a failure reported by the model provider.
type ProviderError struct {
	ChannelError
	Provider   string
	StatusCode int
	Retryable  bool
	RetryAfter *float64 // seconds, from a Retry-After header when present
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("[%s] %s (status=%d, retryable=%v)", e.Provider, e.Message, e.StatusCode, e.Retryable)
}

// The four failure conditions the turn controller distinguishes.

// ConnectionError indicates the provider could not be reached at all.
type ConnectionError struct{ ChannelError }

// AuthenticationError indicates a rejected or missing API key.
type AuthenticationError struct{ ProviderError }

// RateLimitError indicates the provider throttled the request.
type RateLimitError struct{ ProviderError }

// ServerError indicates a transient provider-side failure.
type ServerError struct{ ProviderError }

// GenericError is any provider failure not covered by a specific condition.
type GenericError struct{ ProviderError }

// AbortError indicates the caller's context was cancelled.
type AbortError struct{ ChannelError }

// ErrorFromStatusCode maps an HTTP status code onto the channel error
// taxonomy.
func ErrorFromStatusCode(statusCode int, message, provider string, retryAfter *float64) error {
	pe := ProviderError{
		ChannelError: ChannelError{Message: message},
		Provider:     provider,
		StatusCode:   statusCode,
		RetryAfter:   retryAfter,
	}

	switch statusCode {
	case 401, 403:
		pe.Retryable = false
		return &AuthenticationError{ProviderError: pe}
	case 429:
		pe.Retryable = true
		return &RateLimitError{ProviderError: pe}
	case 500, 502, 503, 504:
		pe.Retryable = true
		return &ServerError{ProviderError: pe}
	default:
		// Unknown provider failures default to non-retryable so the turn
		// controller surfaces them instead of spinning.
		pe.Retryable = false
		return &GenericError{ProviderError: pe}
	}
}

// IsRetryable reports whether the error is safe to retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch e := err.(type) {
	case *AuthenticationError:
		return false
	case *AbortError:
		return false
	case *RateLimitError:
		return true
	case *ServerError:
		return true
	case *ConnectionError:
		return true
	case *GenericError:
		return e.Retryable
	case *ProviderError:
		return e.Retryable
	default:
		return false
	}
}
