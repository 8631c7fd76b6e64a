package pathloss

import "math"

// Calibration defaults: median RSSI measured at 1 m and the path-loss
// exponent (2.0-2.4 open space, 2.5-3.5 indoor).
const (
	DefaultRSSI1m   = -45.0
	DefaultExponent = 2.2
)

// Distance estimates the distance in meters for a given RSSI using the
// log-distance path-loss model with a 1 m reference:
// d = 10^((rssi1m - rssi) / (10 * n)).
func Distance(rssi, rssi1m, n float64) float64 {
	return math.Pow(10, (rssi1m-rssi)/(10*n))
}
