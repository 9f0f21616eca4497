package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/rosterwatch/internal/config"
	ferrors "git.home.luguber.info/inful/rosterwatch/internal/foundation/errors"
	"git.home.luguber.info/inful/rosterwatch/internal/retry"
	"git.home.luguber.info/inful/rosterwatch/internal/roster"
)

type fakeSink struct {
	name  string
	errs  []error
	sent  []Batch
	close int
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Send(_ context.Context, b Batch) error {
	f.sent = append(f.sent, b)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	return nil
}

func (f *fakeSink) Close() error {
	f.close++
	return nil
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestNewBatch(t *testing.T) {
	m := roster.NewMember("Zezima")
	acts := []roster.Activity{{Text: "Quest complete."}}
	b := NewBatch("Iron Brigade", m, acts)
	require.NotEmpty(t, b.ID)
	require.Equal(t, "Zezima", b.Member)
	require.Equal(t, "Zezima: Quest complete.", b.Content)
	require.NotEqual(t, b.ID, NewBatch("Iron Brigade", m, acts).ID)
}

func TestMulti_AttemptsAllAndReturnsFirstError(t *testing.T) {
	first := errors.New("first")
	a := &fakeSink{name: "a", errs: []error{first}}
	b := &fakeSink{name: "b", errs: []error{errors.New("second")}}
	c := &fakeSink{name: "c"}
	m := Multi{a, b, c}

	err := m.Send(context.Background(), NewAnnouncement("g", "hi"))
	require.ErrorIs(t, err, first)
	require.Len(t, c.sent, 1)
	require.Equal(t, "a+b+c", m.Name())

	require.NoError(t, m.Close())
	require.Equal(t, 1, a.close)
	require.Equal(t, 1, c.close)
}

func TestRetrying_RedeliversTransientFailures(t *testing.T) {
	inner := &fakeSink{name: "webhook", errs: []error{
		ferrors.NotifyError("bad gateway").Build(),
		ferrors.NotifyError("bad gateway").Build(),
	}}
	policy := retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2)
	r := NewRetrying(inner, policy, noSleep)

	b := NewAnnouncement("g", "hi")
	require.NoError(t, r.Send(context.Background(), b))
	require.Len(t, inner.sent, 3)
	for _, s := range inner.sent {
		require.Equal(t, b.ID, s.ID)
	}
}

func TestRetrying_GivesUp(t *testing.T) {
	fail := ferrors.NotifyError("still down").Build()
	inner := &fakeSink{name: "webhook", errs: []error{fail, fail, fail, fail}}
	policy := retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 1)

	err := NewRetrying(inner, policy, noSleep).Send(context.Background(), NewAnnouncement("g", "hi"))
	require.ErrorIs(t, err, fail)
	require.Len(t, inner.sent, 2)
}

type fakePublisher struct {
	subject string
	data    []byte
	opts    int
	err     error
}

func (p *fakePublisher) Publish(_ context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	p.subject = subject
	p.data = data
	p.opts = len(opts)
	if p.err != nil {
		return nil, p.err
	}
	return &jetstream.PubAck{Stream: "ROSTER", Sequence: 1}, nil
}

func TestNATSSink_PublishesBatchJSON(t *testing.T) {
	pub := &fakePublisher{}
	sink := &NATSSink{js: pub, subject: "rosterwatch.activity", timeout: time.Second}

	m := roster.NewMember("Zezima")
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b := NewBatch("Iron Brigade", m, []roster.Activity{{Date: ts, Text: "Quest complete."}})
	require.NoError(t, sink.Send(context.Background(), b))

	require.Equal(t, "rosterwatch.activity", pub.subject)
	require.Equal(t, 1, pub.opts)
	var decoded Batch
	require.NoError(t, json.Unmarshal(pub.data, &decoded))
	require.Equal(t, b.ID, decoded.ID)
	require.Equal(t, "Zezima", decoded.Member)
	require.Equal(t, ts, decoded.Activities[0].Date)
	require.NoError(t, sink.Close())
}

func TestNATSSink_PublishFailureIsRetryable(t *testing.T) {
	noAck := errors.New("nats: no response from stream")
	sink := &NATSSink{js: &fakePublisher{err: noAck}, subject: "s", timeout: time.Second}
	err := sink.Send(context.Background(), NewAnnouncement("g", "hi"))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotify))
	require.Equal(t, ferrors.RetryBackoff, ferrors.GetRetryStrategy(err))
	require.ErrorIs(t, err, noAck)
}
