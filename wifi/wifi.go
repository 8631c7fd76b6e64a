package wifi

import (
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
)

const (
	// DefaultInterface is used when no connected interface can be found.
	DefaultInterface = "wlan0"
	// DefaultTimeout bounds a single RSSI query so a stuck utility can
	// never stall the sampling loop indefinitely.
	DefaultTimeout = 250 * time.Millisecond
)

// Sample is one instantaneous link-quality reading. A query that fails for
// any reason yields an unavailable Sample instead of an error.
type Sample struct {
	DBm float64
	OK  bool
}

func Available(dbm float64) Sample { return Sample{DBm: dbm, OK: true} }

func Unavailable() Sample { return Sample{} }

var ifaceRE = regexp.MustCompile(`Interface\s+(\S+)`)

// ConnectedInterface probes `iw dev` for wireless interfaces and returns the
// first one whose link status reports "Connected". Falls back to
// DefaultInterface when nothing is connected or iw is unusable.
func ConnectedInterface(ctx context.Context) string {
	iw := lookPath("iw", "/sbin/iw")
	out, err := exec.CommandContext(ctx, iw, "dev").Output()
	if err != nil {
		glog.Warningf("unable to list wireless interfaces: %s", err)
		return DefaultInterface
	}
	for _, ifn := range parseInterfaces(string(out)) {
		link, err := exec.CommandContext(ctx, iw, "dev", ifn, "link").Output()
		if err != nil {
			continue
		}
		if strings.Contains(string(link), "Connected") {
			return ifn
		}
	}
	return DefaultInterface
}

// Sampler reads the RSSI of one wireless interface by shelling out to the
// host's Wi-Fi utilities: `wpa_cli signal_poll` first, `iw dev <if> link`
// as a fallback.
type Sampler struct {
	Iface   string
	Timeout time.Duration

	iw     string
	wpaCli string
}

func NewSampler(iface string, timeout time.Duration) *Sampler {
	if iface == "" {
		iface = DefaultInterface
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Sampler{
		Iface:   iface,
		Timeout: timeout,
		iw:      lookPath("iw", "/sbin/iw"),
		wpaCli:  lookPath("wpa_cli", "wpa_cli"),
	}
}

// Sample returns one RSSI reading in dBm, or an unavailable Sample when the
// query fails, times out or the link is down. It never returns an error and
// never blocks longer than the configured timeout per utility.
func (s *Sampler) Sample(ctx context.Context) Sample {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	if dbm, ok := s.signalPoll(ctx); ok {
		return Available(dbm)
	}
	if dbm, ok := s.iwLink(ctx); ok {
		return Available(dbm)
	}
	return Unavailable()
}

func (s *Sampler) signalPoll(ctx context.Context) (float64, bool) {
	out, err := exec.CommandContext(ctx, s.wpaCli, "-i", s.Iface, "signal_poll").Output()
	if err != nil {
		glog.V(3).Infof("wpa_cli signal_poll on %q failed: %s", s.Iface, err)
		return 0, false
	}
	return parseSignalPoll(string(out))
}

func (s *Sampler) iwLink(ctx context.Context) (float64, bool) {
	out, err := exec.CommandContext(ctx, s.iw, "dev", s.Iface, "link").Output()
	if err != nil {
		glog.V(3).Infof("iw link on %q failed: %s", s.Iface, err)
		return 0, false
	}
	return parseIWLink(string(out))
}

// parseSignalPoll extracts the RSSI from `wpa_cli signal_poll` output, which
// contains a line of the form "RSSI=-55".
func parseSignalPoll(out string) (float64, bool) {
	for _, ln := range strings.Split(out, "\n") {
		val, found := strings.CutPrefix(strings.TrimSpace(ln), "RSSI=")
		if !found {
			continue
		}
		dbm, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return dbm, true
	}
	return 0, false
}

// parseIWLink extracts the RSSI from `iw dev <if> link` output, which
// contains a line of the form "signal: -55 dBm".
func parseIWLink(out string) (float64, bool) {
	for _, ln := range strings.Split(out, "\n") {
		if !strings.Contains(ln, "signal:") {
			continue
		}
		val := strings.TrimSpace(strings.Split(strings.SplitN(ln, "signal:", 2)[1], "dBm")[0])
		dbm, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		return dbm, true
	}
	return 0, false
}

func parseInterfaces(out string) []string {
	var ifaces []string
	for _, m := range ifaceRE.FindAllStringSubmatch(out, -1) {
		ifaces = append(ifaces, m[1])
	}
	return ifaces
}

func lookPath(name, fallback string) string {
	if p, err := exec.LookPath(name); err == nil {
		return p
	}
	return fallback
}
