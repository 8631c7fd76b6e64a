// Package rylr896 drives a REYAX RYLR896 LoRa modem over its UART AT
// command interface and exposes it as a radio.Link.
package rylr896

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"

	"github.com/Xander0801/RF-detectie/radio"
)

const (
	// MaxPayload is the modem's hard limit per transmission.
	MaxPayload = 240

	baudRate       = 115200
	commandTimeout = 10 * time.Second
)

// Modem result codes reported via +ERR=<n>.
var errText = map[int]string{
	1:  `missing "\r\n" after command`,
	2:  "head of command is not AT",
	3:  `missing "=" in AT command`,
	4:  "unknown command",
	10: "transmit over time",
	11: "receive over time",
	12: "CRC error",
	13: "transmit over run (over 240 bytes)",
	15: "unknown error",
}

// Packet is one transmission reported by the modem via +RCV.
type Packet struct {
	Addr    uint16
	Payload []byte
	RSSI    int
	SNR     int
}

type response struct {
	line string
	code *int // set when the line was +ERR=<n>
}

// Modem is a radio.Link backed by a RYLR896 on a serial port. Commands are
// serialized; received packets are held one at a time, newest wins.
type Modem struct {
	cfg  radio.Config
	port serial.Port

	mu        sync.Mutex // serializes AT command/response exchanges
	responses chan response
	inbox     chan []byte
}

// Open brings the modem up on the given serial port and applies the radio
// configuration. A failure here is a bring-up failure: the caller is
// expected to halt rather than run without a radio.
func Open(portName string, cfg radio.Config) (*Modem, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("unable to open serial port %q: %w", portName, err)
	}

	m := &Modem{
		cfg:       cfg,
		port:      port,
		responses: make(chan response, 1),
		inbox:     make(chan []byte, 1),
	}
	go m.readLoop()

	if err := m.configure(); err != nil {
		port.Close()
		return nil, err
	}
	return m, nil
}

func (m *Modem) configure() error {
	p := m.cfg.Params
	cmds := []string{
		fmt.Sprintf("AT+ADDRESS=%d", m.cfg.Address),
		fmt.Sprintf("AT+NETWORKID=%d", m.cfg.NetworkID),
		fmt.Sprintf("AT+BAND=%d", m.cfg.BandHz),
		fmt.Sprintf("AT+PARAMETER=%d,%d,%d,%d", p.SpreadingFactor, p.Bandwidth, p.CodingRate, p.Preamble),
		fmt.Sprintf("AT+CRFOP=%d", m.cfg.PowerDBm),
	}
	for _, cmd := range cmds {
		if err := m.command(cmd); err != nil {
			return fmt.Errorf("%s: %w", cmd, err)
		}
	}
	return nil
}

// command writes one AT command and waits for the modem's reply.
func (m *Modem) command(cmd string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	glog.V(2).Infof("rylr896 TX: %q", cmd)
	if _, err := m.port.Write([]byte(cmd + "\r\n")); err != nil {
		return err
	}

	select {
	case resp := <-m.responses:
		if resp.code != nil {
			return fmt.Errorf("modem error %d: %s", *resp.code, errText[*resp.code])
		}
		return nil
	case <-time.After(commandTimeout):
		return fmt.Errorf("no response within %s", commandTimeout)
	}
}

// TrySend transmits one payload to the configured peer, best effort. The
// modem acknowledges acceptance with +OK; there is no delivery confirmation.
func (m *Modem) TrySend(payload []byte) error {
	if len(payload) > MaxPayload {
		return fmt.Errorf("payload of %d bytes exceeds the modem limit of %d", len(payload), MaxPayload)
	}
	return m.command(fmt.Sprintf("AT+SEND=%d,%d,%s", m.cfg.Peer, len(payload), payload))
}

// TryReceive hands out the pending packet, if any, without blocking.
func (m *Modem) TryReceive() ([]byte, bool, error) {
	select {
	case p := <-m.inbox:
		return p, true, nil
	default:
		return nil, false, nil
	}
}

func (m *Modem) Close() error {
	return m.port.Close()
}

// readLoop classifies every line the modem emits: unsolicited +RCV packets
// go to the inbox, everything else is a response to the in-flight command.
func (m *Modem) readLoop() {
	reader := bufio.NewReader(m.port)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			glog.V(1).Infof("rylr896 read loop ended: %s", err)
			return
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		glog.V(3).Infof("rylr896 RX: %q", line)

		if data, found := strings.CutPrefix(line, "+RCV="); found {
			pkt, ok := parseRCV(data)
			if !ok {
				glog.Warningf("rylr896: unparseable receive notification: %q", line)
				continue
			}
			glog.V(1).Infof("rylr896: packet from %d (rssi=%d snr=%d, %d bytes)", pkt.Addr, pkt.RSSI, pkt.SNR, len(pkt.Payload))
			m.deliver(pkt.Payload)
			continue
		}

		resp := response{line: line}
		if codeStr, found := strings.CutPrefix(line, "+ERR="); found {
			if code, err := strconv.Atoi(codeStr); err == nil {
				resp.code = &code
			}
		}
		select {
		case m.responses <- resp:
		default:
			glog.V(2).Infof("rylr896: dropping unsolicited response %q", line)
		}
	}
}

// deliver places a packet in the single-slot inbox. An unread packet is
// replaced, never queued behind.
func (m *Modem) deliver(payload []byte) {
	for {
		select {
		case m.inbox <- payload:
			return
		default:
			select {
			case <-m.inbox:
			default:
			}
		}
	}
}

// parseRCV parses the body of +RCV=<addr>,<len>,<data>,<rssi>,<snr>. The
// data segment is extracted by its declared length since the payload itself
// may contain commas.
func parseRCV(s string) (Packet, bool) {
	var pkt Packet

	idx1 := strings.Index(s, ",")
	if idx1 == -1 {
		return pkt, false
	}
	addr, err := strconv.ParseUint(s[:idx1], 10, 16)
	if err != nil {
		return pkt, false
	}
	pkt.Addr = uint16(addr)

	rest := s[idx1+1:]
	idx2 := strings.Index(rest, ",")
	if idx2 == -1 {
		return pkt, false
	}
	length, err := strconv.Atoi(rest[:idx2])
	if err != nil || length < 0 {
		return pkt, false
	}

	dataStart := idx1 + 1 + idx2 + 1
	dataEnd := dataStart + length
	if dataEnd > len(s) {
		return pkt, false
	}
	pkt.Payload = []byte(s[dataStart:dataEnd])

	tail := s[dataEnd:]
	if !strings.HasPrefix(tail, ",") {
		return pkt, false
	}
	tail = tail[1:]
	idx3 := strings.Index(tail, ",")
	if idx3 == -1 {
		return pkt, false
	}
	rssi, err := strconv.Atoi(tail[:idx3])
	if err != nil {
		return pkt, false
	}
	pkt.RSSI = rssi
	snr, err := strconv.Atoi(tail[idx3+1:])
	if err != nil {
		return pkt, false
	}
	pkt.SNR = snr

	return pkt, true
}
