package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/troop248/troopmail/internal/core_mail/domain"
	deliveryApp "github.com/troop248/troopmail/internal/mail_delivery_service/app"
	"github.com/troop248/troopmail/internal/mail_delivery_service/repository"
	"github.com/troop248/troopmail/internal/outbox_api_service/middleware"
)

const mailJobSubject = "mail.jobs.send"

// SubmitOutboxRequest DTO for POST /outbox.
type SubmitOutboxRequest struct {
	FromUID *string  `json:"from_uid,omitempty"` // honored for ApiKey callers only
	ToUIDs  []string `json:"to_uids"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// SubmitOutboxResponse DTO.
type SubmitOutboxResponse struct {
	MessageID string               `json:"message_id"`
	Status    domain.MessageStatus `json:"status"`
}

// OutboxStatusResponse DTO for GET /outbox/{outboxID}. The terminal status and
// error fields are how callers observe the pipeline's outcome.
type OutboxStatusResponse struct {
	ID             string               `json:"id"`
	FromUID        string               `json:"from_uid"`
	ToUIDs         []string             `json:"to_uids"`
	Subject        string               `json:"subject"`
	Status         domain.MessageStatus `json:"status"`
	ErrorMessage   *string              `json:"error,omitempty"`
	ProcessingAt   *time.Time           `json:"processing_at,omitempty"`
	SentAt         *time.Time           `json:"sent_at,omitempty"`
	DeliveredCount *int                 `json:"delivered_count,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

// GenericErrorResponse is the error payload shape for all handlers.
type GenericErrorResponse struct {
	Error string `json:"error"`
}

// jobPublisher is the slice of the message broker the handler needs.
type jobPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// OutboxHandler accepts new outbox messages and exposes their status.
type OutboxHandler struct {
	publisher  jobPublisher
	outboxRepo repository.OutboxRepository
	logger     *slog.Logger
}

// NewOutboxHandler creates a new OutboxHandler.
func NewOutboxHandler(publisher jobPublisher, outboxRepo repository.OutboxRepository, logger *slog.Logger) *OutboxHandler {
	return &OutboxHandler{
		publisher:  publisher,
		outboxRepo: outboxRepo,
		logger:     logger.With("handler", "outbox"),
	}
}

// RegisterRoutes registers outbox routes with the given router.
func (h *OutboxHandler) RegisterRoutes(r chi.Router) {
	r.Post("/outbox", h.handleSubmitOutbox)
	r.Get("/outbox/{outboxID}", h.handleGetOutboxStatus)
}

func (h *OutboxHandler) handleSubmitOutbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	authUser, ok := ctx.Value(middleware.AuthenticatedUserContextKey).(middleware.AuthenticatedUser)
	if !ok {
		logger.WarnContext(ctx, "Caller not authenticated for submit outbox")
		h.jsonError(w, logger, "Not authenticated", http.StatusUnauthorized)
		return
	}

	var req SubmitOutboxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.ErrorContext(ctx, "Failed to decode submit outbox request", "error", err)
		h.jsonError(w, logger, "Invalid request payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	fromUID := authUser.UID
	if authUser.IsService {
		if req.FromUID == nil || *req.FromUID == "" {
			h.jsonError(w, logger, "from_uid is required for service callers", http.StatusBadRequest)
			return
		}
		fromUID = *req.FromUID
	}

	now := time.Now().UTC()
	msg := &domain.OutboxMessage{
		ID:        uuid.NewString(),
		FromUID:   fromUID,
		ToUIDs:    req.ToUIDs,
		Subject:   req.Subject,
		Body:      req.Body,
		Status:    domain.MessageStatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Early structural check for fast feedback; the pipeline revalidates as the
	// authoritative enforcement point.
	if err := deliveryApp.ValidateRequest(msg); err != nil {
		if rej, isRej := domain.AsRejection(err); isRej {
			h.jsonError(w, logger, rej.Reason, http.StatusBadRequest)
			return
		}
		h.jsonError(w, logger, "Invalid request", http.StatusBadRequest)
		return
	}

	if _, err := h.outboxRepo.Create(ctx, msg); err != nil {
		logger.ErrorContext(ctx, "Failed to create outbox message record", "error", err, "message_id", msg.ID)
		h.jsonError(w, logger, "Failed to queue message (database error)", http.StatusInternalServerError)
		return
	}

	payloadBytes, err := json.Marshal(deliveryApp.NATSJobPayload{OutboxMessageID: msg.ID})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to marshal NATS payload", "error", err, "message_id", msg.ID)
		h.jsonError(w, logger, "Failed to prepare message for delivery queue", http.StatusInternalServerError)
		return
	}
	if err := h.publisher.Publish(ctx, mailJobSubject, payloadBytes); err != nil {
		logger.ErrorContext(ctx, "Failed to publish mail job to NATS", "error", err, "message_id", msg.ID, "subject", mailJobSubject)
		h.jsonError(w, logger, "Failed to send message to delivery queue", http.StatusInternalServerError)
		return
	}

	logger.InfoContext(ctx, "Mail job published", "message_id", msg.ID, "subject", mailJobSubject, "from_uid", fromUID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(SubmitOutboxResponse{MessageID: msg.ID, Status: msg.Status})
}

func (h *OutboxHandler) handleGetOutboxStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	authUser, ok := ctx.Value(middleware.AuthenticatedUserContextKey).(middleware.AuthenticatedUser)
	if !ok {
		h.jsonError(w, logger, "Not authenticated", http.StatusUnauthorized)
		return
	}

	outboxID := chi.URLParam(r, "outboxID")
	if _, err := uuid.Parse(outboxID); err != nil {
		h.jsonError(w, logger, "Invalid message ID format", http.StatusBadRequest)
		return
	}

	msg, err := h.outboxRepo.GetByID(ctx, outboxID)
	if err != nil {
		if errors.Is(err, repository.ErrOutboxMessageNotFound) {
			h.jsonError(w, logger, "Message not found", http.StatusNotFound)
			return
		}
		logger.ErrorContext(ctx, "Failed to get outbox message", "error", err, "message_id", outboxID)
		h.jsonError(w, logger, "Failed to retrieve message status", http.StatusInternalServerError)
		return
	}

	if msg.FromUID != authUser.UID && !authUser.IsService {
		logger.WarnContext(ctx, "Caller attempted to access unauthorized message", "message_id", outboxID, "message_owner_uid", msg.FromUID)
		h.jsonError(w, logger, "Forbidden: You do not have permission to view this message", http.StatusForbidden)
		return
	}

	response := OutboxStatusResponse{
		ID:             msg.ID,
		FromUID:        msg.FromUID,
		ToUIDs:         msg.ToUIDs,
		Subject:        msg.Subject,
		Status:         msg.Status,
		ErrorMessage:   msg.ErrorMessage,
		ProcessingAt:   msg.ProcessingAt,
		SentAt:         msg.SentAt,
		DeliveredCount: msg.DeliveredCount,
		CreatedAt:      msg.CreatedAt,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (h *OutboxHandler) jsonError(w http.ResponseWriter, logger *slog.Logger, message string, statusCode int) {
	logger.WarnContext(context.Background(), "API error response", "status_code", statusCode, "message", message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(GenericErrorResponse{Error: message})
}
