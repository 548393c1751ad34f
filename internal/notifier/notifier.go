// Package notifier delivers fire-and-forget messages to buyers. Callers log and
// drop delivery errors; nothing here is allowed to affect ticket or order state.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/apperrors"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/logger"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/pkg/mq"
	"github.com/ArowuTest/lottery-ticketing-backend/pkg/smsgateway"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Notifier sends one event to one user
type Notifier interface {
	Notify(ctx context.Context, userID string, event models.NotificationEvent, payload map[string]any) error
}

// SMS renders events as text and sends them through an SMS gateway. The user id
// is the buyer's MSISDN.
type SMS struct {
	gw smsgateway.Gateway
}

// NewSMS creates an SMS notifier
func NewSMS(gw smsgateway.Gateway) *SMS {
	return &SMS{gw: gw}
}

// Notify implements Notifier
func (n *SMS) Notify(ctx context.Context, userID string, event models.NotificationEvent, payload map[string]any) error {
	if _, err := n.gw.SendSMS(ctx, userID, Render(event, payload)); err != nil {
		return apperrors.External("sms", err)
	}
	return nil
}

// Render formats the SMS text of an event
func Render(event models.NotificationEvent, payload map[string]any) string {
	switch event {
	case models.EventOrderExpiringSoon:
		return fmt.Sprintf("Your lottery order %v expires in %v minutes. Complete payment to keep your tickets.",
			payload["orderId"], payload["minutesLeft"])
	case models.EventTicketWon:
		return fmt.Sprintf("Congratulations! Ticket %v won %v in round %v.",
			payload["number"], payload["amount"], payload["roundId"])
	default:
		return string(event)
	}
}

// MQ publishes events as JSON messages for downstream consumers
type MQ struct {
	pub   mq.Publisher
	topic string
	now   func() time.Time
}

// NewMQ creates a notifier publishing to topic
func NewMQ(pub mq.Publisher, topic string) *MQ {
	return &MQ{pub: pub, topic: topic, now: time.Now}
}

// Notify implements Notifier
func (n *MQ) Notify(ctx context.Context, userID string, event models.NotificationEvent, payload map[string]any) error {
	body, err := json.Marshal(models.Notification{
		UserID:    userID,
		Event:     event,
		Payload:   payload,
		CreatedAt: n.now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := n.pub.Publish(ctx, n.topic, body); err != nil {
		return apperrors.External("mq", err)
	}
	return nil
}

// Fanout delivers to every notifier and joins their errors
type Fanout []Notifier

// Notify implements Notifier
func (f Fanout) Notify(ctx context.Context, userID string, event models.NotificationEvent, payload map[string]any) error {
	var errs []error
	for _, n := range f {
		if err := n.Notify(ctx, userID, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log only writes the event to the application log
type Log struct{}

// Notify implements Notifier
func (Log) Notify(ctx context.Context, userID string, event models.NotificationEvent, payload map[string]any) error {
	logger.FromContext(ctx).Info("notification", zap.String("userId", userID), zap.String("event", string(event)), zap.Any("payload", payload))
	return nil
}
