package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/Xander0801/RF-detectie/pipeline"
	"github.com/Xander0801/RF-detectie/radio"
	"github.com/Xander0801/RF-detectie/radio/rylr896"
	"github.com/Xander0801/RF-detectie/wifi"
	"github.com/Xander0801/RF-detectie/window"
)

// Flags
var (
	origin        = flag.String("origin", "", "identifier of this sender (defaults to the hostname, then a random UUID)")
	iface         = flag.String("iface", "", "Wi-Fi interface to sample (defaults to the connected one)")
	tick          = flag.Duration("tick", pipeline.DefaultTick, "sampling period")
	windowSize    = flag.Int("window", 10, "number of samples per averaged value")
	aggregate     = flag.String("aggregate", "mean", "reduction of a full window (one of: mean, median)")
	sampleTimeout = flag.Duration("sampleTimeout", wifi.DefaultTimeout, "upper bound for a single RSSI query")

	// Radio
	serialPort      = flag.String("serialPort", "/dev/ttyS0", "serial port of the LoRa modem")
	radioAddress    = flag.Uint("radioAddress", 1, "LoRa address of this node (0-65535)")
	radioPeer       = flag.Uint("radioPeer", 2, "LoRa address of the receiving node")
	radioNetwork    = flag.Uint("radioNetwork", 5, "LoRa network ID (0-16), must match the receiver")
	radioBand       = flag.Uint("radioBand", uint(radio.BandEurope868), "center frequency in Hz")
	spreadingFactor = flag.Uint("spreadingFactor", 9, "LoRa spreading factor (7-12)")
	bandwidth       = flag.Uint("bandwidth", 7, "LoRa bandwidth code (0-9, 7 = 125 kHz)")
	codingRate      = flag.Uint("codingRate", 1, "LoRa coding rate (1-4)")
	preamble        = flag.Uint("preamble", 4, "LoRa programmed preamble (4-7)")
	rfPower         = flag.Uint("rfPower", 15, "RF output power in dBm (0-15)")
)

func main() {
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "true")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *origin == "" {
		if host, err := os.Hostname(); err == nil {
			*origin = host
		} else {
			*origin = uuid.NewString()
		}
	}

	wifiIface := *iface
	if wifiIface == "" {
		wifiIface = wifi.ConnectedInterface(ctx)
	}

	var agg func(window.Window) float64
	switch *aggregate {
	case "mean":
		agg = window.Window.Mean
	case "median":
		agg = window.Window.Median
	default:
		glog.Exitf("%q is not a supported aggregate, pick one of: mean, median", *aggregate)
	}

	link, err := rylr896.Open(*serialPort, radio.Config{
		Address:   uint16(*radioAddress),
		Peer:      uint16(*radioPeer),
		NetworkID: uint8(*radioNetwork),
		BandHz:    uint32(*radioBand),
		Params: radio.Parameters{
			SpreadingFactor: uint8(*spreadingFactor),
			Bandwidth:       uint8(*bandwidth),
			CodingRate:      uint8(*codingRate),
			Preamble:        uint8(*preamble),
		},
		PowerDBm: uint8(*rfPower),
	})
	if err != nil {
		glog.Exitf("unable to bring up the LoRa modem on %q: %s", *serialPort, err)
	}
	defer link.Close()

	glog.Infof("sender %s: sampling %q via the modem on %q", *origin, wifiIface, *serialPort)
	sender := &pipeline.Sender{
		Origin:    *origin,
		Sampler:   wifi.NewSampler(wifiIface, *sampleTimeout),
		Averager:  window.NewAverager(*windowSize),
		Link:      link,
		Tick:      *tick,
		Aggregate: agg,
	}
	if err := sender.Run(ctx); err != nil {
		glog.Fatal(err)
	}

	glog.Flush()
}
