package nats

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/OnboardForge/internal/logger"
	"github.com/Strob0t/OnboardForge/internal/port/messagequeue"
)

const waitFor = 10 * time.Second

var errReviewerBusy = errors.New("reviewer service unavailable")

// testConnect connects to the NATS server named by NATS_URL.
func testConnect(t *testing.T) *Queue {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}
	q, err := Connect(context.Background(), url)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		if err := q.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return q
}

type delivery struct {
	ctx  context.Context
	data []byte
}

// subscribe registers handler results on a channel. fail, when set, is
// returned from the handler after the delivery is recorded.
func subscribe(t *testing.T, q *Queue, subject string, fail error) <-chan delivery {
	t.Helper()
	ch := make(chan delivery, 16)
	stop, err := q.Subscribe(context.Background(), subject, func(ctx context.Context, _ string, data []byte) error {
		select {
		case ch <- delivery{ctx: ctx, data: data}:
		default:
		}
		return fail
	})
	if err != nil {
		t.Fatalf("Subscribe %s: %v", subject, err)
	}
	t.Cleanup(stop)
	return ch
}

// watchDLQ reads the dead-letter subject with a raw consumer so the payload
// is not validated a second time. Only messages published from now on are
// seen.
func watchDLQ(t *testing.T, q *Queue, subject string) <-chan jetstream.Msg {
	t.Helper()
	ctx := context.Background()
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		FilterSubject: subject + messagequeue.DLQSuffix,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		t.Fatalf("create DLQ consumer: %v", err)
	}
	ch := make(chan jetstream.Msg, 4)
	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		_ = msg.Ack()
		select {
		case ch <- msg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("consume DLQ: %v", err)
	}
	t.Cleanup(cc.Stop)
	return ch
}

func await[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitFor):
		t.Fatalf("timed out waiting for %s", what)
	}
	var zero T
	return zero
}

// testSubject is captured by the stream and validated as plain JSON.
func testSubject(t *testing.T) string {
	return messagequeue.SubjectPrefix + "test." + t.Name()
}

func TestQueue_SubmittedApplicationRoundTrip(t *testing.T) {
	q := testConnect(t)
	got := subscribe(t, q, messagequeue.SubjectApplicationSubmitted, nil)

	want := messagequeue.ApplicationSubmittedPayload{
		CaseID:       "APP-" + t.Name(),
		BusinessName: "StableTech Solutions",
		Industry:     "Technology",
		SubmittedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}

	ctx := logger.WithRequestID(context.Background(), "req-"+t.Name())
	if err := q.Publish(ctx, messagequeue.SubjectApplicationSubmitted, data); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	// Earlier runs may have left messages on the durable consumer.
	deadline := time.After(waitFor)
	for {
		select {
		case d := <-got:
			var p messagequeue.ApplicationSubmittedPayload
			if err := json.Unmarshal(d.data, &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if p.CaseID != want.CaseID {
				continue
			}
			if p.BusinessName != want.BusinessName || !p.SubmittedAt.Equal(want.SubmittedAt) {
				t.Errorf("payload = %+v, want %+v", p, want)
			}
			if id := logger.RequestID(d.ctx); id != "req-"+t.Name() {
				t.Errorf("request ID = %q, want %q", id, "req-"+t.Name())
			}
			return
		case <-deadline:
			t.Fatal("timed out waiting for submitted application")
		}
	}
}

func TestQueue_InvalidPayloadGoesToDLQ(t *testing.T) {
	q := testConnect(t)
	subject := messagequeue.SubjectDecisionMade
	dlq := watchDLQ(t, q, subject)
	subscribe(t, q, subject, nil)

	// Decision messages must carry a case_id.
	payload := []byte(`{"decision":"APPROVE"}`)
	if err := q.Publish(context.Background(), subject, payload); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msg := await(t, dlq, "dead-lettered decision")
	if string(msg.Data()) != string(payload) {
		t.Errorf("DLQ data = %q, want %q", msg.Data(), payload)
	}
	if msg.Headers().Get(headerDLQReason) == "" {
		t.Error("expected DLQ reason header")
	}
}

func TestQueue_RetriesExhaustedGoesToDLQ(t *testing.T) {
	q := testConnect(t)
	subject := testSubject(t)
	dlq := watchDLQ(t, q, subject)
	subscribe(t, q, subject, errReviewerBusy)

	// A message already retried maxRetries times is dead-lettered on the
	// next failure.
	msg := &nats.Msg{Subject: subject, Data: []byte(`{"case_id":"APP-1"}`), Header: nats.Header{}}
	msg.Header.Set(headerRetryCount, "3")
	if _, err := q.js.PublishMsg(context.Background(), msg); err != nil {
		t.Fatalf("PublishMsg: %v", err)
	}

	got := await(t, dlq, "dead-lettered retry")
	if reason := got.Headers().Get(headerDLQReason); reason != errReviewerBusy.Error() {
		t.Errorf("DLQ reason = %q, want %q", reason, errReviewerBusy.Error())
	}
}

func TestQueue_KeyValueBucket(t *testing.T) {
	q := testConnect(t)
	ctx := context.Background()

	kv, err := q.KeyValue(ctx, "test-cases-"+t.Name(), time.Minute)
	if err != nil {
		t.Fatalf("KeyValue: %v", err)
	}
	first, err := kv.Put(ctx, "APP-1", []byte(`{"status":"SUBMITTED"}`))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := kv.Update(ctx, "APP-1", []byte(`{"status":"APPROVED"}`), first); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := kv.Update(ctx, "APP-1", []byte(`{"status":"REJECTED"}`), first); err == nil {
		t.Error("expected stale revision update to fail")
	}
	entry, err := kv.Get(ctx, "APP-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(entry.Value()) != `{"status":"APPROVED"}` {
		t.Errorf("value = %s", entry.Value())
	}
	if err := kv.Delete(ctx, "APP-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := kv.Get(ctx, "APP-1"); !errors.Is(err, jetstream.ErrKeyNotFound) {
		t.Errorf("Get after delete = %v, want ErrKeyNotFound", err)
	}
}

func TestQueue_IsConnected(t *testing.T) {
	if !testConnect(t).IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}
}

func TestConsumerName(t *testing.T) {
	tests := map[string]string{
		"onboarding.application.submitted": "onboardforge-onboarding-application-submitted",
		"onboarding.>":                     "onboardforge-onboarding-all",
		"onboarding.*.pending":             "onboardforge-onboarding-any-pending",
	}
	for subject, want := range tests {
		if got := consumerName(subject); got != want {
			t.Errorf("consumerName(%q) = %q, want %q", subject, got, want)
		}
	}
}

func TestRetryCount(t *testing.T) {
	h := nats.Header{}
	if retryCount(h) != 0 {
		t.Error("missing header should count as 0")
	}
	h.Set(headerRetryCount, "2")
	if retryCount(h) != 2 {
		t.Error("expected 2")
	}
	h.Set(headerRetryCount, "x")
	if retryCount(h) != 0 {
		t.Error("malformed header should count as 0")
	}
}
