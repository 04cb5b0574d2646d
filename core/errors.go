package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	RelayErrorBadInput         = "RELAY_BAD_INPUT"
	RelayErrorProviderNotFound = "RELAY_PROVIDER_NOT_FOUND"
	RelayErrorUnauthorized     = "RELAY_UNAUTHORIZED"
	RelayErrorForbidden        = "RELAY_FORBIDDEN"
	RelayErrorNoCredential     = "RELAY_NO_CREDENTIAL"
	RelayErrorUpstreamFailed   = "RELAY_UPSTREAM_FAILED"
	RelayErrorInternal         = "RELAY_INTERNAL_ERROR"
)

// RelayErrorMapper lifts arbitrary errors into the goerrors envelope with
// relay text codes and an HTTP status.
func RelayErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureRelayErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "provider not found"), strings.Contains(msg, "unknown provider"):
		return newRelayError(err.Error(), goerrors.CategoryNotFound, RelayErrorProviderNotFound)
	case strings.Contains(msg, "no credential"):
		return newRelayError(err.Error(), goerrors.CategoryRateLimit, RelayErrorNoCredential)
	case strings.Contains(msg, "api key"), strings.Contains(msg, "unauthorized"):
		return newRelayError(err.Error(), goerrors.CategoryAuth, RelayErrorUnauthorized)
	case strings.Contains(msg, "admin key"), strings.Contains(msg, "forbidden"):
		return newRelayError(err.Error(), goerrors.CategoryAuthz, RelayErrorForbidden)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "out of range"):
		return newRelayError(err.Error(), goerrors.CategoryBadInput, RelayErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureRelayErrorEnvelope(mapped)
}

func newRelayError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureRelayErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureRelayErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = relayHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultRelayTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultRelayTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return RelayErrorBadInput
	case goerrors.CategoryNotFound:
		return RelayErrorProviderNotFound
	case goerrors.CategoryAuth:
		return RelayErrorUnauthorized
	case goerrors.CategoryAuthz:
		return RelayErrorForbidden
	case goerrors.CategoryRateLimit:
		return RelayErrorNoCredential
	case goerrors.CategoryExternal, goerrors.CategoryOperation:
		return RelayErrorUpstreamFailed
	default:
		return RelayErrorInternal
	}
}

func relayHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal, goerrors.CategoryOperation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
