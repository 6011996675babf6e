// Package client implements the remote-display side of a Wireworld
// session: a network decode loop and the credit-governed queue that
// decouples frame arrival from display pacing.
package client

import (
	"errors"
	"sync"
	"time"

	"github.com/sarchlab/wireworld/cell"
)

// DefaultMaxCredit is the number of frames the server may have in flight
// (R_FRAME issued, A_FRAME_END not yet delivered to the display) before
// the client refuses to accept more.
const DefaultMaxCredit = 5

// ErrCreditExceeded is returned by Enqueue when the producer delivers a
// frame without a matching outstanding credit: the server sent an
// A_FRAME_END without a prior R_FRAME, which is a protocol violation.
var ErrCreditExceeded = errors.New("client: frame delivered without outstanding credit")

// Display receives completed frames in FIFO order, one at a time.
type Display interface {
	Show(g *cell.Grid)
}

// FrameBuffer decouples the network decoder from the display, in either
// paced or free-run mode, and enforces the credit/window flow control
// that backpressures the server. It is owned exclusively by the
// session's decode goroutine plus whatever goroutine drives
// pause/step/resume; all mutable state is guarded by lock, following the
// buffer idiom of core.defaultPort.
type FrameBuffer struct {
	lock sync.Mutex

	maxCredit    int
	credit       int
	updateRateMs int

	queue []*cell.Grid
	paced bool // true once paced mode's timer has been armed
	step  bool // true while in step-mode (paused)

	display      Display
	requestFrame func() error // called once per credit granted

	timer *time.Timer
}

// NewFrameBuffer constructs a FrameBuffer. requestFrame is invoked by the
// buffer, synchronously, each time a credit is granted or re-armed; the
// session implementation supplies it to send R_FRAME on the wire. If
// maxCredit <= 0, DefaultMaxCredit is used.
func NewFrameBuffer(maxCredit, updateRateMs int, display Display, requestFrame func() error) *FrameBuffer {
	if maxCredit <= 0 {
		maxCredit = DefaultMaxCredit
	}
	return &FrameBuffer{
		maxCredit:    maxCredit,
		credit:       maxCredit,
		updateRateMs: updateRateMs,
		display:      display,
		requestFrame: requestFrame,
	}
}

// Start issues the initial credit grant: one requestFrame call per
// available credit, so the server may have up to maxCredit frames in
// flight before the first delivery.
func (fb *FrameBuffer) Start() error {
	fb.lock.Lock()
	credit := fb.credit
	fb.lock.Unlock()

	for i := 0; i < credit; i++ {
		if err := fb.requestFrame(); err != nil {
			return err
		}
	}
	return nil
}

// Enqueue accepts one completed frame from the decoder. In free-run mode,
// outside step-mode, it is delivered immediately. In paced mode it joins
// the queue and the pace timer is (re)armed if it was stopped.
func (fb *FrameBuffer) Enqueue(g *cell.Grid) error {
	fb.lock.Lock()

	if fb.credit <= 0 {
		fb.lock.Unlock()
		return ErrCreditExceeded
	}
	fb.credit--
	fb.queue = append(fb.queue, g)

	if fb.updateRateMs == 0 {
		if fb.step {
			fb.lock.Unlock()
			return nil
		}
		frame := fb.popLocked()
		fb.lock.Unlock()
		return fb.deliver(frame)
	}

	needsArm := !fb.paced && !fb.step
	if needsArm {
		fb.paced = true
	}
	fb.lock.Unlock()

	if needsArm {
		fb.armTimer()
	}
	return nil
}

// popLocked removes and returns the front of the queue. Caller must hold
// lock; it is released by popLocked's caller, not here.
func (fb *FrameBuffer) popLocked() *cell.Grid {
	if len(fb.queue) == 0 {
		return nil
	}
	g := fb.queue[0]
	fb.queue = fb.queue[1:]
	return g
}

// deliver shows a frame (if non-nil) and grants back one credit,
// requesting a replacement frame from the producer.
func (fb *FrameBuffer) deliver(g *cell.Grid) error {
	if g == nil {
		return nil
	}
	fb.display.Show(g)

	fb.lock.Lock()
	fb.credit++
	fb.lock.Unlock()

	return fb.requestFrame()
}

func (fb *FrameBuffer) armTimer() {
	fb.timer = time.AfterFunc(time.Duration(fb.updateRateMs)*time.Millisecond, fb.onTick)
}

func (fb *FrameBuffer) onTick() {
	fb.lock.Lock()
	if fb.step {
		fb.lock.Unlock()
		return
	}
	frame := fb.popLocked()
	empty := len(fb.queue) == 0
	if empty {
		fb.paced = false
	}
	fb.lock.Unlock()

	_ = fb.deliver(frame)

	if !empty {
		fb.armTimer()
	}
}

// Pause enters step-mode: the paced timer stops and no frame is
// delivered automatically.
func (fb *FrameBuffer) Pause() {
	fb.lock.Lock()
	fb.step = true
	if fb.timer != nil {
		fb.timer.Stop()
	}
	fb.paced = false
	fb.lock.Unlock()
}

// Step forwards exactly one queued frame while paused. It is a no-op if
// the queue is empty.
func (fb *FrameBuffer) Step() error {
	fb.lock.Lock()
	frame := fb.popLocked()
	fb.lock.Unlock()
	return fb.deliver(frame)
}

// Resume leaves step-mode. In free-run mode it drains the entire queue
// immediately, granting one credit (and one requestFrame call) per
// frame. In paced mode it restarts the timer if frames remain queued.
func (fb *FrameBuffer) Resume() error {
	fb.lock.Lock()
	fb.step = false

	if fb.updateRateMs == 0 {
		var frames []*cell.Grid
		for {
			f := fb.popLocked()
			if f == nil {
				break
			}
			frames = append(frames, f)
		}
		fb.lock.Unlock()

		for _, f := range frames {
			if err := fb.deliver(f); err != nil {
				return err
			}
		}
		return nil
	}

	hasQueued := len(fb.queue) > 0
	if hasQueued {
		fb.paced = true
	}
	fb.lock.Unlock()

	if hasQueued {
		fb.armTimer()
	}
	return nil
}

// Stop enters step-mode and discards any queued, undelivered frames. The
// underlying socket is closed independently by the session.
func (fb *FrameBuffer) Stop() {
	fb.lock.Lock()
	fb.step = true
	fb.queue = nil
	if fb.timer != nil {
		fb.timer.Stop()
	}
	fb.lock.Unlock()
}

// Credit returns the number of outstanding credits available to the
// producer, for diagnostics and tests.
func (fb *FrameBuffer) Credit() int {
	fb.lock.Lock()
	defer fb.lock.Unlock()
	return fb.credit
}

// QueueLen returns the number of frames currently queued but not yet
// shown, for diagnostics and tests.
func (fb *FrameBuffer) QueueLen() int {
	fb.lock.Lock()
	defer fb.lock.Unlock()
	return len(fb.queue)
}
