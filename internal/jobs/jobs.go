package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

// TypeOrderCreated is emitted once a checkout persists an order. The worker
// fans it out to confirmation side effects.
const TypeOrderCreated = "order:created"

// OrderCreatedPayload carries the minimum the worker needs.
type OrderCreatedPayload struct {
	OrderID string  `json:"orderId"`
	UserID  string  `json:"userId"`
	Total   float64 `json:"total"`
}

// NewOrderCreatedTask builds the asynq task for a freshly created order.
func NewOrderCreatedTask(p OrderCreatedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeOrderCreated, data,
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	), nil
}

// Client wraps the asynq producer so services depend on a narrow surface.
type Client struct {
	A *asynq.Client
}

// EnqueueOrderCreated schedules the order confirmation task.
func (c *Client) EnqueueOrderCreated(ctx context.Context, p OrderCreatedPayload) error {
	if c == nil || c.A == nil {
		return errors.New("jobs: client not configured")
	}
	task, err := NewOrderCreatedTask(p)
	if err != nil {
		return err
	}
	_, err = c.A.EnqueueContext(ctx, task)
	return err
}
