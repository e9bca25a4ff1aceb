package summarize

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/smmry-app/smmry-api/internal/api"
	"github.com/smmry-app/smmry-api/internal/auth"
	"github.com/smmry-app/smmry-api/internal/middleware"
)

type Handler struct {
	svc      *Service
	validate *validator.Validate
}

func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())
	if identity == nil {
		api.HandleError(w, api.ErrAuthRequired)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	req.ApplyDefaults()
	if err := h.validate.Struct(req); err != nil {
		api.JSONErrorDetails(w, http.StatusBadRequest, "invalid request", fieldErrors(err))
		return
	}

	result, err := h.svc.Summarize(r.Context(), *identity, req)
	if err != nil {
		h.writeAdmissionError(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, result)
}

func (h *Handler) Quota(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())
	if identity == nil {
		api.HandleError(w, api.ErrAuthRequired)
		return
	}

	status, err := h.svc.QuotaStatus(r.Context(), *identity)
	if err != nil {
		slog.Error("reading quota status", "error", err,
			"request_id", middleware.GetRequestID(r.Context()))
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, status)
}

func (h *Handler) writeAdmissionError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())

	var dailyErr *DailyLimitError
	if errors.As(err, &dailyErr) {
		api.JSONError(w, http.StatusTooManyRequests, dailyErr.Error())
		return
	}

	var queuedErr *QueuedError
	if errors.As(err, &queuedErr) {
		api.JSON(w, http.StatusTooManyRequests, QueuedResponse{
			Error:         queuedErr.Error(),
			QueuePosition: queuedErr.Position,
		})
		return
	}

	switch {
	case errors.Is(err, ErrUsageRecordFailed):
		// The distinct post-summarization failure class: cost incurred, usage
		// not persisted.
		slog.Error("usage record failure after summarization", "error", err, "request_id", requestID)
		api.JSONError(w, http.StatusInternalServerError, "Failed to update usage count")
	case errors.Is(err, ErrSummarizerFailed):
		slog.Error("summarizer failure", "error", err, "request_id", requestID)
		api.JSONError(w, http.StatusInternalServerError, "Failed to summarize text; please try again")
	case errors.Is(err, ErrQuotaCheckFailed):
		slog.Error("admission check failure", "error", err, "request_id", requestID)
		api.JSONError(w, http.StatusInternalServerError, "Failed to process request; please try again")
	default:
		slog.Error("unclassified summarize failure", "error", err, "request_id", requestID)
		api.HandleError(w, api.ErrInternalServer)
	}
}

// fieldErrors flattens validator output into field → constraint pairs.
func fieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
