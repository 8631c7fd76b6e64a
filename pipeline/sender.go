// Package pipeline holds the two control loops of the telemetry link: the
// fixed-period sense/aggregate/transmit loop on the sender and the
// poll/decode/display loop on the receiver.
package pipeline

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/Xander0801/RF-detectie/radio"
	"github.com/Xander0801/RF-detectie/telemetry"
	"github.com/Xander0801/RF-detectie/wifi"
	"github.com/Xander0801/RF-detectie/window"
)

// DefaultTick is the reference sampling period (20 Hz).
const DefaultTick = 50 * time.Millisecond

// Sampler produces one instantaneous link-quality reading per call. It must
// absorb its own failures: the loop only ever sees presence or absence of a
// value.
type Sampler interface {
	Sample(ctx context.Context) wifi.Sample
}

// Sender drives the sense, aggregate, transmit side of the link: one sample
// per tick, one transmission per filled window.
type Sender struct {
	Origin   string
	Sampler  Sampler
	Averager *window.Averager
	Link     radio.Link

	// Tick is the sampling period. Defaults to DefaultTick.
	Tick time.Duration
	// Aggregate reduces a filled window to one value. Defaults to the
	// arithmetic mean.
	Aggregate func(window.Window) float64
}

// Run loops until the context is canceled, then returns nil. Each cycle
// samples once, offers the sample to the averager and, on a flush, encodes
// and transmits the aggregate. The end-of-cycle sleep covers only the
// remainder of the tick: a cycle that overran its period slips, it never
// queues catch-up transmissions.
func (s *Sender) Run(ctx context.Context) error {
	tick := s.Tick
	if tick <= 0 {
		tick = DefaultTick
	}
	agg := s.Aggregate
	if agg == nil {
		agg = window.Window.Mean
	}

	glog.Infof("sender %s: sampling every %s, averaging over %d samples", s.Origin, tick, s.Averager.Capacity())
	for {
		start := time.Now()

		sample := s.Sampler.Sample(ctx)
		if win, full := s.Averager.Offer(sample); full {
			s.flush(win, agg)
		}

		rest := tick - time.Since(start)
		if rest < 0 {
			rest = 0
		}
		select {
		case <-ctx.Done():
			glog.Infof("sender %s: shutting down", s.Origin)
			return nil
		case <-time.After(rest):
		}
	}
}

// flush transmits one averaged value, best effort. A failed transmission is
// logged and the value dropped; the next window supersedes it anyway.
func (s *Sender) flush(win window.Window, agg func(window.Window) float64) {
	payload, err := telemetry.Encode(s.Origin, telemetry.UnixSeconds(time.Now()), agg(win))
	if err != nil {
		glog.Warningf("sender %s: dropping average, encode failed: %s", s.Origin, err)
		return
	}
	if err := s.Link.TrySend(payload); err != nil {
		glog.Warningf("sender %s: dropping average, transmit failed: %s", s.Origin, err)
		return
	}
	glog.V(1).Infof("sender %s: sent %s", s.Origin, payload)
}
