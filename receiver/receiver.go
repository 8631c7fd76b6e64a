package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/golang/glog"

	"github.com/Xander0801/RF-detectie/display"
	"github.com/Xander0801/RF-detectie/pathloss"
	"github.com/Xander0801/RF-detectie/pipeline"
	"github.com/Xander0801/RF-detectie/radio"
	"github.com/Xander0801/RF-detectie/radio/rylr896"
)

// Flags
var (
	poll = flag.Duration("poll", pipeline.DefaultPoll, "yield between empty receive polls")

	// Radio
	serialPort      = flag.String("serialPort", "/dev/ttyUSB0", "serial port of the LoRa modem")
	radioAddress    = flag.Uint("radioAddress", 2, "LoRa address of this node (0-65535)")
	radioNetwork    = flag.Uint("radioNetwork", 5, "LoRa network ID (0-16), must match the sender")
	radioBand       = flag.Uint("radioBand", uint(radio.BandEurope868), "center frequency in Hz")
	spreadingFactor = flag.Uint("spreadingFactor", 9, "LoRa spreading factor (7-12)")
	bandwidth       = flag.Uint("bandwidth", 7, "LoRa bandwidth code (0-9, 7 = 125 kHz)")
	codingRate      = flag.Uint("codingRate", 1, "LoRa coding rate (1-4)")
	preamble        = flag.Uint("preamble", 4, "LoRa programmed preamble (4-7)")
	rfPower         = flag.Uint("rfPower", 15, "RF output power in dBm (0-15)")

	// Displays
	listen      = flag.String("listen", "", "address of the HTTP status page, e.g. :8080 (empty disables it)")
	imgPath     = flag.String("imgPath", "", "path of the PNG display panel (empty disables it)")
	imgWidth    = flag.Int("imgWidth", 320, "width of the display panel in pixels")
	imgHeight   = flag.Int("imgHeight", 64, "height of the display panel in pixels")
	rssi1m      = flag.Float64("rssi1m", pathloss.DefaultRSSI1m, "calibrated RSSI at 1 m in dBm, for the distance estimate (0 disables it)")
	pathLossExp = flag.Float64("pathLossExp", pathloss.DefaultExponent, "path-loss exponent for the distance estimate")
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

	// Display setup. The console is always on; the status page and the PNG
	// panel are opt-in and must come up cleanly or not at all.
	sinks := []display.Sink{&display.Console{Out: os.Stdout}}
	if *listen != "" {
		page, err := display.NewHTTP(*listen)
		if err != nil {
			glog.Exitf("unable to bring up the status page on %q: %s", *listen, err)
		}
		sinks = append(sinks, page)
	}
	if *imgPath != "" {
		panel, err := display.NewImage(*imgPath, *imgWidth, *imgHeight)
		if err != nil {
			glog.Exitf("unable to bring up the display panel: %s", err)
		}
		sinks = append(sinks, panel)
	}

	link, err := rylr896.Open(*serialPort, radio.Config{
		Address:   uint16(*radioAddress),
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

	receiver := &pipeline.Receiver{
		Link:        link,
		Sinks:       sinks,
		Poll:        *poll,
		RSSI1m:      *rssi1m,
		PathLossExp: *pathLossExp,
	}
	if err := receiver.Run(ctx); err != nil {
		glog.Fatal(err)
	}

	glog.Flush()
}
