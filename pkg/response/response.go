package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/course-server-go/pkg/apperrors"
)

// Envelope is the response shape shared by every endpoint.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Error      interface{} `json:"error,omitempty"`
	Pagination interface{} `json:"pagination,omitempty"`
}

// ErrorBody is the machine readable part of a failed response.
type ErrorBody struct {
	Code   apperrors.ErrorCode `json:"code,omitempty"`
	Fields map[string]string   `json:"fields,omitempty"`
}

// Success writes a success response with optional message and data.
func Success(c *gin.Context, status int, data interface{}, message string, pagination interface{}) {
	c.JSON(status, Envelope{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: pagination,
	})
}

// Created is a convenience helper for POST 201 responses.
func Created(c *gin.Context, data interface{}, message string) {
	Success(c, http.StatusCreated, data, message, nil)
}

// NoContent writes a bare 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes an error response. AppErrors contribute their code and fields.
func Error(c *gin.Context, status int, message string, err error) {
	c.JSON(status, Envelope{
		Success: false,
		Message: message,
		Error:   bodyFor(status, err),
	})
}

// ErrorWithLog writes an error response and logs the error via slog.
func ErrorWithLog(logger *slog.Logger, c *gin.Context, status int, message string, err error) {
	logFailure(logger, c, status, message, err)
	Error(c, status, message, err)
}

// ErrorWithData writes an error response that also carries a data payload.
func ErrorWithData(logger *slog.Logger, c *gin.Context, status int, message string, data interface{}, err error) {
	logFailure(logger, c, status, message, err)

	c.JSON(status, Envelope{
		Success: false,
		Message: message,
		Data:    data,
		Error:   bodyFor(status, err),
	})
}

// AppError renders an AppError with its own status and message.
func AppError(logger *slog.Logger, c *gin.Context, err *apperrors.AppError) {
	if err.StatusCode() >= http.StatusInternalServerError {
		logFailure(logger, c, err.StatusCode(), err.Message(), err)
	}
	Error(c, err.StatusCode(), err.Message(), err)
}

func bodyFor(status int, err error) interface{} {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return ErrorBody{Code: appErr.Code(), Fields: appErr.Fields()}
	}

	return ErrorBody{Code: codeForStatus(status)}
}

func codeForStatus(status int) apperrors.ErrorCode {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.ErrValidation
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case http.StatusPaymentRequired:
		return apperrors.ErrPaymentRequired
	case http.StatusForbidden:
		return apperrors.ErrForbidden
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	case http.StatusConflict:
		return apperrors.ErrConflict
	case http.StatusTooManyRequests:
		return apperrors.ErrTooMany
	default:
		return apperrors.ErrInternal
	}
}

func logFailure(logger *slog.Logger, c *gin.Context, status int, message string, err error) {
	if logger == nil || err == nil {
		return
	}
	logger.ErrorContext(c.Request.Context(), message,
		slog.Int("status", status),
		slog.String("path", c.FullPath()),
		slog.String("error", err.Error()),
	)
}
