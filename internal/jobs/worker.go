package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Worker consumes the storefront's background tasks.
type Worker struct {
	Log zerolog.Logger
}

// Mux registers every task handler on a fresh ServeMux.
func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeOrderCreated, w.HandleOrderCreated)
	return mux
}

// HandleOrderCreated processes an order confirmation. Delivery channels
// (email, SMS) hang off this handler; for now it records the event.
func (w *Worker) HandleOrderCreated(_ context.Context, t *asynq.Task) error {
	var p OrderCreatedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("order created payload: %w: %w", err, asynq.SkipRetry)
	}
	w.Log.Info().
		Str("order_id", p.OrderID).
		Str("user_id", p.UserID).
		Float64("total", p.Total).
		Msg("order created")
	return nil
}
