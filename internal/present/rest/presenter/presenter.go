package presenter

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/tubesage/internal/domain"
	"github.com/totegamma/tubesage/internal/logger"
)

type errorResponse struct {
	Status    string `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func BadRequestMessage(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{
		Status:  "error",
		Error:   string(domain.CodeInvalidBody),
		Message: msg,
	})
}

// Classify maps an error to its HTTP status and response body.
func Classify(err error) (int, errorResponse) {
	var (
		inputErr      *domain.InputError
		resolutionErr *domain.ResolutionError
		probeErr      *domain.ProbeError
		storageErr    *domain.StorageError
		generationErr *domain.GenerationError
	)

	switch {
	case errors.As(err, &inputErr):
		status := http.StatusBadRequest
		switch inputErr.Code {
		case domain.CodeUnauthorized:
			status = http.StatusUnauthorized
		case domain.CodeForbidden:
			status = http.StatusForbidden
		}
		return status, errorResponse{Status: "error", Error: string(inputErr.Code), Message: inputErr.Error()}
	case errors.As(err, &resolutionErr):
		return http.StatusBadRequest, errorResponse{Status: "error", Error: string(resolutionErr.Code), Message: resolutionErr.Error()}
	case errors.As(err, &generationErr):
		return http.StatusBadGateway, errorResponse{
			Status:    "error",
			Error:     string(domain.CodeGeneration),
			Message:   "Failed to generate " + generationErr.Kind + ". Please try again.",
			Retryable: true,
		}
	case errors.As(err, &probeErr):
		return http.StatusInternalServerError, errorResponse{
			Status:    "error",
			Error:     string(domain.CodeProbeFailed),
			Message:   "Could not verify the video with " + probeErr.Platform + " right now.",
			Retryable: true,
		}
	case errors.As(err, &storageErr):
		return http.StatusInternalServerError, errorResponse{
			Status:    "error",
			Error:     string(domain.CodeStorage),
			Message:   "Storage is temporarily unavailable.",
			Retryable: true,
		}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Status: "error", Error: "NotFound", Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorResponse{Status: "error", Error: string(domain.CodeInternal), Message: "Internal server error"}
	}
}

// Error writes err with the status its type maps to. Server side failures
// are logged; client errors are not.
func Error(c echo.Context, log *logger.Logger, err error) error {
	status, body := Classify(err)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"status", status,
			"error", err,
		)
	} else {
		log.Debug("Request rejected", "path", c.Path(), "code", body.Error, "error", err)
	}
	return c.JSON(status, body)
}
