package tasks

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/mahosalu/estadisticas/internal/database/models"
)

// Enqueuer pushes mail tasks onto the queue. It satisfies
// auth.ResetMailer.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) EnqueueResetEmail(ctx context.Context, user *models.User, token string) error {
	task, err := NewResetEmailTask(ResetEmailPayload{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Token:  token,
	})
	if err != nil {
		return err
	}
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueueing reset email: %w", err)
	}
	return nil
}
