package report

import (
	"fmt"
	"sync"
	"time"
)

// Recorder accumulates an ordered, timestamped step log during one test
// execution. The UI-interaction layer holds a reference and calls Record
// after each action; the finished list is read once at teardown.
//
// Safe for concurrent use: page helpers may record from goroutines spawned
// by the driver.
type Recorder struct {
	mu    sync.Mutex
	steps []string
	now   func() time.Time
}

// NewRecorder returns an empty step recorder.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// Record appends a step description with its sequence number and wall-clock
// time, e.g. "[3.-] [14:07:52] -> Click login button".
func (r *Recorder) Record(description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.steps) + 1
	r.steps = append(r.steps, fmt.Sprintf("[%d.-] [%s] -> %s", n, r.now().Format("15:04:05"), description))
}

// Steps returns a copy of the recorded step log in execution order.
func (r *Recorder) Steps() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.steps))
	copy(out, r.steps)
	return out
}

// Len returns the number of recorded steps.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.steps)
}
