package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// ResetSender is the delivery side of the mail queue; *mail.Mailer is
// the production implementation.
type ResetSender interface {
	SendPasswordReset(ctx context.Context, to, name, resetURL string) error
}

type Handler struct {
	logger  *slog.Logger
	sender  ResetSender
	baseURL string
}

func NewHandler(logger *slog.Logger, sender ResetSender, baseURL string) *Handler {
	return &Handler{logger: logger, sender: sender, baseURL: baseURL}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeResetEmail, h.HandleResetEmail)
}

func (h *Handler) HandleResetEmail(ctx context.Context, t *asynq.Task) error {
	var payload ResetEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	resetURL := fmt.Sprintf("%s/resetear-clave/%s", h.baseURL, payload.Token)

	if err := h.sender.SendPasswordReset(ctx, payload.Email, payload.Name, resetURL); err != nil {
		h.logger.Error("failed to send reset email",
			"user_id", payload.UserID,
			"email", payload.Email,
			"error", err,
		)
		return err
	}

	h.logger.Info("reset email sent", "email", payload.Email)
	return nil
}
