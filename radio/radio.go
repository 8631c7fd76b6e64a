package radio

// Link is the narrow capability a best-effort, unacknowledged radio link
// offers: one payload in, maybe one payload out. There is no delivery
// confirmation, no retry and no stream abstraction on purpose.
type Link interface {
	// TrySend attempts to transmit one payload of bounded size. A nil
	// return means the modem accepted the payload, not that it arrived.
	TrySend(payload []byte) error
	// TryReceive returns a pending packet without blocking. ok is false
	// when nothing is pending. At most one packet is ever held; an unread
	// packet is replaced by a newer one.
	TryReceive() (payload []byte, ok bool, err error)
	Close() error
}

// Common LoRa center frequencies in Hz.
const (
	BandEurope433 uint32 = 433000000
	BandEurope868 uint32 = 868000000
	BandUSA915    uint32 = 915000000
)

// Parameters are the fixed RF settings, configured once at startup and never
// renegotiated mid-session.
type Parameters struct {
	SpreadingFactor uint8 // SF, 7-12
	Bandwidth       uint8 // BW, 0-9 (7 = 125 kHz)
	CodingRate      uint8 // CR, 1-4
	Preamble        uint8 // programmed preamble, 4-7
}

// Config describes one node's position on the link.
type Config struct {
	Address   uint16 // this node
	Peer      uint16 // destination for TrySend
	NetworkID uint8  // must match on both ends
	BandHz    uint32
	Params    Parameters
	PowerDBm  uint8 // RF output power, 0-15
}
