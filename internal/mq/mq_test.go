package mq

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

func TestNewMessage_ChainCompleted(t *testing.T) {
	payload := ChainCompletedPayload{
		RunID:      uuid.New(),
		ChainName:  "demo",
		Source:     "cli",
		Status:     "nok",
		DurationMs: 12,
		Errors:     []string{"step 's1' failed: boom"},
	}

	msg, err := NewMessage(MessageTypeChainCompleted, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.ID == "" || msg.Timestamp.IsZero() {
		t.Error("expected id and timestamp")
	}

	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	decoded, err := DecodeMessage(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Type != MessageTypeChainCompleted {
		t.Errorf("unexpected type %q", decoded.Type)
	}

	got, err := ParsePayload[ChainCompletedPayload](decoded)
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if got.RunID != payload.RunID || got.Status != "nok" || len(got.Errors) != 1 {
		t.Errorf("unexpected payload %+v", got)
	}
}

func TestDecodeMessage_Invalid(t *testing.T) {
	if _, err := DecodeMessage([]byte("not json")); err == nil {
		t.Error("expected error for malformed body")
	}
	if _, err := DecodeMessage([]byte(`{"id":"x","payload":{}}`)); err == nil {
		t.Error("expected error for missing type")
	}
}

func TestURLFromEnv(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	if got := URLFromEnv(); got != DefaultURL {
		t.Errorf("expected default url, got %q", got)
	}

	t.Setenv("RABBITMQ_URL", "amqp://u:p@mq:5672/")
	if got := URLFromEnv(); got != "amqp://u:p@mq:5672/" {
		t.Errorf("unexpected url %q", got)
	}
}

func TestTopologyInfo(t *testing.T) {
	info := TopologyInfo()
	for _, name := range []string{string(ExchangeChains), string(QueueChainsCompleted), string(QueueDLQChains)} {
		if !strings.Contains(info, name) {
			t.Errorf("topology info missing %s", name)
		}
	}
}

// fakeChannel запоминает объявления, привязки и подписку.
type fakeChannel struct {
	declared []amqp.Queue
	args     [][4]bool // durable, autoDelete, exclusive, noWait
	binds    [][3]string
	consumed string
	excl     bool
}

func (f *fakeChannel) Qos(int, int, bool) error { return nil }

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, _ amqp.Table) (amqp.Queue, error) {
	if name == "" {
		name = "amq.gen-test"
	}
	q := amqp.Queue{Name: name}
	f.declared = append(f.declared, q)
	f.args = append(f.args, [4]bool{durable, autoDelete, exclusive, noWait})
	return q, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	f.binds = append(f.binds, [3]string{name, key, exchange})
	return nil
}

func (f *fakeChannel) Consume(queue, _ string, _, exclusive, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	f.consumed = queue
	f.excl = exclusive
	return make(chan amqp.Delivery), nil
}

func TestConsumer_TapUsesExclusiveQueue(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewConsumer(nil, logger, ConsumerConfig{Tap: &CompletedTap, Handler: func(context.Context, *Message) error { return nil }})

	ch := &fakeChannel{}
	if _, err := c.subscribeOn(ch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ch.declared) != 1 {
		t.Fatalf("expected one declared queue, got %d", len(ch.declared))
	}
	if got := ch.args[0]; got != [4]bool{false, true, true, false} {
		t.Errorf("tap queue must be transient, auto-delete and exclusive, got %v", got)
	}
	wantBind := [3]string{"amq.gen-test", string(RoutingKeyCompleted), string(ExchangeChains)}
	if len(ch.binds) != 1 || ch.binds[0] != wantBind {
		t.Errorf("unexpected bindings %v", ch.binds)
	}
	if ch.consumed != "amq.gen-test" || !ch.excl {
		t.Errorf("expected exclusive consume of tap queue, got %q exclusive=%v", ch.consumed, ch.excl)
	}
	if ch.consumed == string(QueueChainsCompleted) {
		t.Error("tap must not consume the shared queue")
	}
}

func TestConsumer_SharedQueue(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewConsumer(nil, logger, ConsumerConfig{Queue: QueueChainsCompleted})

	ch := &fakeChannel{}
	if _, err := c.subscribeOn(ch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ch.declared) != 0 || len(ch.binds) != 0 {
		t.Errorf("shared queue comes from topology, got declares %v binds %v", ch.declared, ch.binds)
	}
	if ch.consumed != string(QueueChainsCompleted) || ch.excl {
		t.Errorf("unexpected consume %q exclusive=%v", ch.consumed, ch.excl)
	}
}
