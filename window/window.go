package window

import (
	"sort"

	"github.com/Xander0801/RF-detectie/wifi"
)

// Window is one full buffer of RSSI readings, handed out by the Averager at
// the moment it fills. It is immutable after creation.
type Window struct {
	samples []float64
}

func (w Window) Count() int { return len(w.samples) }

// Mean is the arithmetic mean of the buffered readings at full precision.
// Rounding happens at encode time, not here.
func (w Window) Mean() float64 {
	if len(w.samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range w.samples {
		sum += s
	}
	return sum / float64(len(w.samples))
}

// Median returns the middle value of the buffered readings, averaging the
// two central values for even counts.
func (w Window) Median() float64 {
	if len(w.samples) == 0 {
		return 0
	}
	sorted := make([]float64, len(w.samples))
	copy(sorted, w.samples)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// Averager buffers available samples until a fixed count is reached, then
// hands the filled Window out and starts over empty.
type Averager struct {
	capacity int
	buf      []float64
}

func NewAverager(capacity int) *Averager {
	if capacity < 1 {
		capacity = 1
	}
	return &Averager{
		capacity: capacity,
		buf:      make([]float64, 0, capacity),
	}
}

func (a *Averager) Capacity() int { return a.capacity }

// Pending is the number of readings buffered since the last flush.
func (a *Averager) Pending() int { return len(a.buf) }

// Offer appends one sample and reports whether the window filled. Unavailable
// samples are skipped entirely: they do not count toward capacity and do not
// appear in the average, so a degraded link produces averages more slowly
// rather than averaging over fewer readings. On a flush the returned Window
// owns the buffered readings and the Averager resets to empty.
func (a *Averager) Offer(s wifi.Sample) (Window, bool) {
	if !s.OK {
		return Window{}, false
	}
	a.buf = append(a.buf, s.DBm)
	if len(a.buf) < a.capacity {
		return Window{}, false
	}
	w := Window{samples: a.buf}
	a.buf = make([]float64, 0, a.capacity)
	return w, true
}
