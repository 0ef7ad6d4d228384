package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sandevgo/kurt/internal/core"
	"github.com/sandevgo/kurt/pkg/log"
)

type errorBody struct {
	Type    string `json:"type,omitempty"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// opError names the endpoint operation that failed downstream.
type opError struct {
	message string
	err     error
}

func (e *opError) Error() string { return e.message + ": " + e.err.Error() }

func (e *opError) Unwrap() error { return e.err }

func failed(message string, err error) error {
	return &opError{message: message, err: err}
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		log.FromCtx(c.Request().Context()).Error().Err(err).Str("uri", c.Request().RequestURI).Msg("request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		log.FromCtx(c.Request().Context()).Error().Err(err).Msg("failed to write error response")
	}
}

func errorResponse(err error) (int, errorBody) {
	var (
		ve *core.ValidationError
		he *echo.HTTPError
		oe *opError
	)

	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, errorBody{Error: ve.Error()}
	case errors.As(err, &he):
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		return he.Code, errorBody{Error: msg}
	case errors.As(err, &oe):
		status := http.StatusInternalServerError
		if core.IsTransport(oe.err) || core.IsOracleParse(oe.err) {
			status = http.StatusBadGateway
		}
		return status, errorBody{Error: oe.message, Details: oe.err.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Error: "Internal server error"}
	}
}
