package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "llmconf/internal/errors"
	"llmconf/internal/exchange"
	"llmconf/internal/manager"
	"llmconf/internal/provider"
	"llmconf/internal/router"
)

type requestError struct {
	Status  int
	Message string
	Type    string
	Code    string
}

func (e requestError) Error() string {
	return e.Message
}

type errorBody struct {
	Error struct {
		Message  string   `json:"message"`
		Type     string   `json:"type"`
		Code     string   `json:"code,omitempty"`
		Problems []string `json:"problems,omitempty"`
	} `json:"error"`
}

func writeError(c echo.Context, status int, message, errType, code string, problems []string) error {
	var payload errorBody
	payload.Error.Message = message
	payload.Error.Type = errType
	payload.Error.Code = code
	payload.Error.Problems = problems
	return c.JSON(status, payload)
}

func jsonErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var cfgErr *apperrors.ConfigError
	if errors.As(err, &cfgErr) {
		_ = writeError(c, configStatus(cfgErr.Kind), cfgErr.Message, "invalid_request_error", string(cfgErr.Kind), cfgErr.Problems)
		return
	}

	var reqErr requestError
	if errors.As(err, &reqErr) {
		_ = writeError(c, reqErr.Status, reqErr.Message, reqErr.Type, reqErr.Code, nil)
		return
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		msg := http.StatusText(echoErr.Code)
		if s, ok := echoErr.Message.(string); ok {
			msg = s
		}
		_ = writeError(c, echoErr.Code, msg, "invalid_request_error", "", nil)
		return
	}

	_ = writeError(c, http.StatusInternalServerError, "internal server error", "server_error", "", nil)
}

func configStatus(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindDuplicate:
		return http.StatusConflict
	case apperrors.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// toHTTPError maps domain errors to API errors. Configuration errors pass
// through and are rendered by the error handler.
func toHTTPError(err error) error {
	var reqErr requestError
	if errors.As(err, &reqErr) {
		return reqErr
	}

	var cfgErr *apperrors.ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr
	}

	switch {
	case errors.Is(err, manager.ErrNotArray):
		return requestError{Status: http.StatusBadRequest, Message: err.Error(), Type: "invalid_request_error"}
	case errors.Is(err, exchange.ErrUnsupportedFormat):
		return requestError{Status: http.StatusBadRequest, Message: err.Error(), Type: "invalid_request_error"}
	case errors.Is(err, router.ErrUnknownModel):
		return requestError{Status: http.StatusNotFound, Message: err.Error(), Type: "not_found_error"}
	case errors.Is(err, router.ErrModelDisabled):
		return requestError{Status: http.StatusConflict, Message: err.Error(), Type: "invalid_request_error"}
	case errors.Is(err, provider.ErrUnknownProvider), errors.Is(err, provider.ErrUnsupportedOperation):
		return requestError{Status: http.StatusBadRequest, Message: err.Error(), Type: "invalid_request_error"}
	case errors.Is(err, router.ErrDiscovery):
		return requestError{Status: http.StatusBadGateway, Message: "upstream provider error", Type: "upstream_error"}
	}

	var ieErr *apperrors.ImportExportError
	if errors.As(err, &ieErr) {
		return requestError{Status: http.StatusInternalServerError, Message: ieErr.Error(), Type: "export_error"}
	}

	return requestError{Status: http.StatusInternalServerError, Message: "internal server error", Type: "server_error"}
}
