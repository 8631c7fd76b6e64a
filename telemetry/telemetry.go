package telemetry

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// MaxPayload is the packet budget of the radio link: the RYLR896 modem
// rejects transmissions over 240 bytes.
const MaxPayload = 240

// Message is the wire format: a flat JSON object with exactly three fields,
// e.g. {"pi":"node-A","ts":1700000000.0,"rssi_dbm":-40.9}.
type Message struct {
	Origin string  `json:"pi"`
	TS     float64 `json:"ts"`
	RSSI   float64 `json:"rssi_dbm"`
}

// wireMessage mirrors Message with pointer fields so decoding can tell a
// missing field from a zero value.
type wireMessage struct {
	Origin *string  `json:"pi"`
	TS     *float64 `json:"ts"`
	RSSI   *float64 `json:"rssi_dbm"`
}

// Decoded is the result of parsing one received payload. Malformed input is
// reported through the marker, never through an error or panic; Raw carries
// the original bytes for diagnostic display either way.
type Decoded struct {
	Message   Message
	Malformed bool
	Raw       string
}

// Round2 rounds to the two-decimal precision used on the wire.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UnixSeconds is the wire timestamp: seconds since epoch, fractional allowed.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// Encode serializes one averaged reading. The value is rounded to two
// decimals here, at the last possible moment; accumulation keeps full
// precision. Payloads over the link budget are refused.
func Encode(origin string, ts, rssi float64) ([]byte, error) {
	b, err := json.Marshal(Message{
		Origin: origin,
		TS:     ts,
		RSSI:   Round2(rssi),
	})
	if err != nil {
		return nil, err
	}
	if len(b) > MaxPayload {
		return nil, fmt.Errorf("payload of %d bytes exceeds the link budget of %d", len(b), MaxPayload)
	}
	return b, nil
}

// Decode parses one received payload. Any input that is not a JSON object
// carrying all three fields, including empty or truncated packets, yields a
// malformed Decoded; Decode never fails destructively and holds no state
// between calls.
func Decode(raw []byte) Decoded {
	var w wireMessage
	if err := json.Unmarshal(raw, &w); err != nil {
		return Decoded{Malformed: true, Raw: string(raw)}
	}
	if w.Origin == nil || w.TS == nil || w.RSSI == nil {
		return Decoded{Malformed: true, Raw: string(raw)}
	}
	return Decoded{
		Message: Message{Origin: *w.Origin, TS: *w.TS, RSSI: *w.RSSI},
		Raw:     string(raw),
	}
}
