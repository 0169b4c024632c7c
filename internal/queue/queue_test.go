package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	key      string
	msg      amqp.Publishing
	deadline bool
	err      error
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	_, c.deadline = ctx.Deadline()
	c.key = key
	c.msg = msg
	return c.err
}

func TestMailPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := NewMailPublisher(ch, time.Second)

	err := p.Publish(context.Background(), domain.MailMessage{
		Type: domain.MailTypeAssignment,
		To:   "dana.levi@migdalor.org.il",
		Data: domain.AssignmentMailData{
			FullName:      "Dana Levi",
			StationName:   "Packing 2",
			Date:          "2026-10-18",
			NumberOfHours: 8,
			Score:         92.5,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, EmailQueue, ch.key)
	assert.True(t, ch.deadline)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)

	var decoded struct {
		Type string                    `json:"type"`
		To   string                    `json:"to"`
		Data domain.AssignmentMailData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, domain.MailTypeAssignment, decoded.Type)
	assert.Equal(t, "Packing 2", decoded.Data.StationName)
	assert.Equal(t, int32(8), decoded.Data.NumberOfHours)
}

func TestMailPublisher_PropagatesError(t *testing.T) {
	boom := errors.New("channel closed")
	p := NewMailPublisher(&fakeChannel{err: boom}, time.Second)

	err := p.Publish(context.Background(), domain.MailMessage{Type: domain.MailTypeAssignment, To: "x@y.z"})
	assert.ErrorIs(t, err, boom)
}
