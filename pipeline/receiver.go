package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/Xander0801/RF-detectie/display"
	"github.com/Xander0801/RF-detectie/pathloss"
	"github.com/Xander0801/RF-detectie/radio"
	"github.com/Xander0801/RF-detectie/telemetry"
)

// DefaultPoll is the yield between empty receive polls.
const DefaultPoll = 20 * time.Millisecond

// Receiver drives the poll, decode, display side of the link. It holds no
// state between packets beyond what the sinks retain (the latest line).
type Receiver struct {
	Link  radio.Link
	Sinks []display.Sink

	// Poll is the yield between empty polls. Defaults to DefaultPoll.
	Poll time.Duration

	// Path-loss calibration for the distance annotation. A zero RSSI1m or
	// non-positive PathLossExp disables the annotation.
	RSSI1m      float64
	PathLossExp float64
}

// Run loops until the context is canceled, then returns nil. Every packet is
// forwarded to every sink whether it decoded cleanly or not, so the operator
// always sees that something arrived.
func (r *Receiver) Run(ctx context.Context) error {
	poll := r.Poll
	if poll <= 0 {
		poll = DefaultPoll
	}

	glog.Infof("receiver: polling the link every %s", poll)
	for {
		payload, ok, err := r.Link.TryReceive()
		if err != nil {
			glog.Warningf("receiver: read failed: %s", err)
		}
		if !ok {
			select {
			case <-ctx.Done():
				glog.Info("receiver: shutting down")
				return nil
			case <-time.After(poll):
			}
			continue
		}

		text := r.format(telemetry.Decode(payload))
		for _, sink := range r.Sinks {
			if err := sink.Render(text); err != nil {
				glog.Warningf("receiver: display failed: %s", err)
			}
		}

		select {
		case <-ctx.Done():
			glog.Info("receiver: shutting down")
			return nil
		default:
		}
	}
}

// format renders one decoded message as a short text block. Malformed input
// keeps its raw text with an explicit annotation instead of being hidden.
func (r *Receiver) format(d telemetry.Decoded) string {
	if d.Malformed {
		return fmt.Sprintf("<malformed> %s", d.Raw)
	}

	m := d.Message
	clock := time.Unix(0, int64(m.TS*float64(time.Second))).Format("15:04:05")
	text := fmt.Sprintf("%s %s RSSI=%.2f dBm", clock, m.Origin, m.RSSI)
	if r.RSSI1m != 0 && r.PathLossExp > 0 {
		text += fmt.Sprintf("  d=%.2f m", pathloss.Distance(m.RSSI, r.RSSI1m, r.PathLossExp))
	}
	return text
}
