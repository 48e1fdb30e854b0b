package service

// SampleWindow is a bounded FIFO of power samples in kW. Appending past the
// limit drops the oldest samples. Not safe for concurrent use, it belongs to
// the control loop alone.
type SampleWindow struct {
	samples []float64
	maxSize int
}

func NewSampleWindow(maxSize int) *SampleWindow {
	return &SampleWindow{
		maxSize: maxSize,
	}
}

func (w *SampleWindow) Add(sample float64) {
	w.samples = append(w.samples, sample)
	if len(w.samples) > w.maxSize {
		w.samples = w.samples[len(w.samples)-w.maxSize:]
	}
}

func (w *SampleWindow) Count() int {
	return len(w.samples)
}

// Mean of the current window. Returns 0 on an empty window, callers gate on
// Count before using the value.
func (w *SampleWindow) Mean() float64 {
	if len(w.samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range w.samples {
		sum += s
	}
	return sum / float64(len(w.samples))
}

func (w *SampleWindow) Reset() {
	w.samples = nil
}
