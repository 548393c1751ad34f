package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/apperrors"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	sent []string
	err  error
}

func (g *fakeGateway) SendSMS(ctx context.Context, msisdn, message string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.sent = append(g.sent, msisdn+":"+message)
	return "id", nil
}

type fakePublisher struct {
	topic string
	body  []byte
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, body []byte) error {
	p.topic, p.body = topic, body
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func TestSMS_Notify(t *testing.T) {
	gw := &fakeGateway{}
	n := NewSMS(gw)

	err := n.Notify(context.Background(), "2348030000000", models.EventTicketWon, map[string]any{"number": "123456", "amount": "6000000", "roundId": 3})
	require.NoError(t, err)
	require.Len(t, gw.sent, 1)
	assert.Contains(t, gw.sent[0], "Ticket 123456 won 6000000 in round 3")

	gw.err = errors.New("down")
	err = n.Notify(context.Background(), "1", models.EventOrderExpiringSoon, nil)
	assert.Equal(t, apperrors.KindExternal, apperrors.KindOf(err))
}

func TestMQ_Notify(t *testing.T) {
	pub := &fakePublisher{}
	n := NewMQ(pub, "lottery_notifications")

	require.NoError(t, n.Notify(context.Background(), "u1", models.EventOrderExpiringSoon, map[string]any{"orderId": "o1"}))
	assert.Equal(t, "lottery_notifications", pub.topic)

	var got models.Notification
	require.NoError(t, json.Unmarshal(pub.body, &got))
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, models.EventOrderExpiringSoon, got.Event)
	assert.Equal(t, "o1", got.Payload["orderId"])
}

func TestFanout_JoinsErrors(t *testing.T) {
	ok := &fakeGateway{}
	bad := &fakeGateway{err: errors.New("down")}
	f := Fanout{NewSMS(ok), NewSMS(bad), Log{}}

	err := f.Notify(context.Background(), "u1", models.EventTicketWon, map[string]any{})
	assert.Error(t, err)
	assert.Len(t, ok.sent, 1, "a failing notifier does not stop the others")
}
