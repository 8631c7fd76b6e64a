package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xander0801/RF-detectie/display"
	"github.com/Xander0801/RF-detectie/radio/loopback"
	"github.com/Xander0801/RF-detectie/telemetry"
	"github.com/Xander0801/RF-detectie/wifi"
	"github.com/Xander0801/RF-detectie/window"
)

// constantSampler always reports the same reading.
type constantSampler struct {
	dbm float64
}

func (s *constantSampler) Sample(context.Context) wifi.Sample {
	return wifi.Available(s.dbm)
}

// failingLink refuses every transmission and counts the attempts.
type failingLink struct {
	mu       sync.Mutex
	attempts int
}

func (l *failingLink) TrySend([]byte) error {
	l.mu.Lock()
	l.attempts++
	l.mu.Unlock()
	return errors.New("radio said no")
}

func (l *failingLink) TryReceive() ([]byte, bool, error) { return nil, false, nil }
func (l *failingLink) Close() error                      { return nil }

func (l *failingLink) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attempts
}

// recordingSink collects every rendered line.
type recordingSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *recordingSink) Render(text string) error {
	s.mu.Lock()
	s.lines = append(s.lines, text)
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) rendered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func (s *recordingSink) asSinks() []display.Sink {
	return []display.Sink{s}
}

func TestSenderTransmitsEachFilledWindow(t *testing.T) {
	near, far := loopback.Pair()
	sender := &Sender{
		Origin:   "node-A",
		Sampler:  &constantSampler{dbm: -40.9},
		Averager: window.NewAverager(2),
		Link:     near,
		Tick:     time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sender.Run(ctx) }()

	// Wait for at least one transmission to land on the far end.
	var payload []byte
	require.Eventually(t, func() bool {
		p, ok, err := far.TryReceive()
		if err != nil || !ok {
			return false
		}
		payload = p
		return true
	}, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done, "sender must exit cleanly on interrupt")

	d := telemetry.Decode(payload)
	require.False(t, d.Malformed)
	assert.Equal(t, "node-A", d.Message.Origin)
	assert.Equal(t, -40.9, d.Message.RSSI)
	assert.Greater(t, d.Message.TS, 0.0)
}

func TestSenderSurvivesTransmitFailures(t *testing.T) {
	link := &failingLink{}
	sender := &Sender{
		Origin:   "node-A",
		Sampler:  &constantSampler{dbm: -40},
		Averager: window.NewAverager(2),
		Link:     link,
		Tick:     time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sender.Run(ctx) }()

	// The loop must keep flushing fresh windows after failed sends instead
	// of exiting or retrying the lost average.
	require.Eventually(t, func() bool { return link.count() >= 3 }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestSenderUsesConfiguredAggregate(t *testing.T) {
	near, far := loopback.Pair()
	sender := &Sender{
		Origin:    "node-A",
		Sampler:   &constantSampler{dbm: -42},
		Averager:  window.NewAverager(3),
		Link:      near,
		Tick:      time.Millisecond,
		Aggregate: window.Window.Median,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sender.Run(ctx) }()

	var payload []byte
	require.Eventually(t, func() bool {
		p, ok, _ := far.TryReceive()
		if !ok {
			return false
		}
		payload = p
		return true
	}, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	d := telemetry.Decode(payload)
	require.False(t, d.Malformed)
	assert.Equal(t, -42.0, d.Message.RSSI)
}

func TestReceiverDisplaysDecodedMessage(t *testing.T) {
	near, far := loopback.Pair()
	sink := &recordingSink{}
	receiver := &Receiver{
		Link:        far,
		Sinks:       sink.asSinks(),
		Poll:        time.Millisecond,
		RSSI1m:      -45,
		PathLossExp: 2.2,
	}

	payload, err := telemetry.Encode("node-A", 1700000000.0, -40.9)
	require.NoError(t, err)
	require.NoError(t, near.TrySend(payload))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- receiver.Run(ctx) }()

	require.Eventually(t, func() bool { return len(sink.rendered()) > 0 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	line := sink.rendered()[0]
	assert.Contains(t, line, "node-A RSSI=-40.90 dBm")
	assert.Contains(t, line, "d=")
	assert.NotContains(t, line, "<malformed>")
}

func TestReceiverDisplaysMalformedInput(t *testing.T) {
	near, far := loopback.Pair()
	sink := &recordingSink{}
	receiver := &Receiver{
		Link:  far,
		Sinks: sink.asSinks(),
		Poll:  time.Millisecond,
	}

	require.NoError(t, near.TrySend([]byte("!!not json!!")))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- receiver.Run(ctx) }()

	require.Eventually(t, func() bool { return len(sink.rendered()) > 0 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, "<malformed> !!not json!!", sink.rendered()[0])
}

func TestReceiverIdleWithoutPackets(t *testing.T) {
	_, far := loopback.Pair()
	sink := &recordingSink{}
	receiver := &Receiver{
		Link:  far,
		Sinks: sink.asSinks(),
		Poll:  time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()
	require.NoError(t, receiver.Run(ctx))

	// No packet pending: nothing rendered, the displayed message is
	// untouched.
	assert.Empty(t, sink.rendered())
}

func TestReceiverFormatOmitsDistanceWithoutCalibration(t *testing.T) {
	r := &Receiver{}
	d := telemetry.Decode([]byte(`{"pi":"node-A","ts":1700000000.0,"rssi_dbm":-40.9}`))
	require.False(t, d.Malformed)

	line := r.format(d)
	assert.True(t, strings.Contains(line, "RSSI=-40.90 dBm"))
	assert.False(t, strings.Contains(line, "d="))
}
