package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/sarchlab/wireworld/cell"
	"github.com/sarchlab/wireworld/wire"
)

// State is the server-side session state machine:
// connected -> awaiting-init -> running -> closed.
type State int

const (
	StateConnected State = iota
	StateAwaitingInit
	StateRunning
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateAwaitingInit:
		return "awaiting-init"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// FrameEmitter encodes the current generation of a session's double
// buffer into one or more A_RECT_UPDATE messages followed by
// A_FRAME_END. The minimal implementation sends the whole map as a
// single rectangle; a diffed variant sends only changed sections.
type FrameEmitter interface {
	Emit(w io.Writer, db *cell.DoubleBuffer) error
}

// Session drives one accepted connection through the server state
// machine: accept (already done by the Listener) -> decode R_INIT ->
// serve loop (block on R_FRAME, advance, emit, repeat) -> closed.
type Session struct {
	conn    net.Conn
	emitter FrameEmitter
	log     *slog.Logger

	state atomic.Int32

	width, height, sampling int
	db                      *cell.DoubleBuffer

	generation atomic.Int64 // count of emitted frames, for /status
}

// NewSession wraps an accepted connection. The connection is not read
// from until Run is called.
func NewSession(conn net.Conn, emitter FrameEmitter, log *slog.Logger) *Session {
	s := &Session{conn: conn, emitter: emitter, log: log}
	s.state.Store(int32(StateConnected))
	return s
}

// Generation returns the number of frames emitted so far (for the
// /status endpoint).
func (s *Session) Generation() int64 { return s.generation.Load() }

// State returns the current session state (for the /status endpoint).
func (s *Session) State() State { return State(s.state.Load()) }

// Width, Height and Sampling report the dimensions and sampling factor
// declared by R_INIT (for the /status endpoint). They are zero until the
// handshake completes.
func (s *Session) Width() int    { return s.width }
func (s *Session) Height() int   { return s.height }
func (s *Session) Sampling() int { return s.sampling }

// Run performs the handshake and then the serve loop, closing the
// connection on any error or when ctx is canceled. A broken pipe or
// other write failure surfaces as an ordinary Go error from Write rather
// than a process-terminating signal: Go's net package never raises
// SIGPIPE (a platform difference from the original C server - see
// DESIGN.md).
func (s *Session) Run(ctx context.Context) (err error) {
	defer func() {
		s.state.Store(int32(StateClosed))
		closeErr := s.conn.Close()
		if err == nil {
			err = closeErr
		}
	}()

	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.conn.Close()
		case <-stopWatch:
		}
	}()

	s.state.Store(int32(StateAwaitingInit))
	if err := s.handshake(); err != nil {
		return err
	}
	s.state.Store(int32(StateRunning))
	s.log.Info("session initialized", "width", s.width, "height", s.height, "sampling", s.sampling)

	return s.serveLoop()
}

// handshake reads R_INIT and sets up the double buffer before the serve
// loop starts, while the session is in the awaiting-init state.
func (s *Session) handshake() error {
	idWords, err := wire.ReadWords(s.conn, 1)
	if err != nil {
		return err
	}
	if idWords[0] != wire.RInit {
		return fmt.Errorf("%w: expected R_INIT, got message id %d", wire.ErrProtocol, idWords[0])
	}

	init, err := wire.ReadInitBody(s.conn)
	if err != nil {
		return err
	}

	s.width, s.height, s.sampling = init.Width, init.Height, init.Sampling
	s.db = cell.NewDoubleBuffer(s.width, s.height)
	wire.UnpackIntoGrid(init.Frame, s.db.Current(), 0, 0, s.width, s.height)

	return nil
}

// serveLoop blocks on R_FRAME, advances the engine by the session's
// sampling factor, emits the result, and repeats. No A_RECT_UPDATE /
// A_FRAME_END is ever sent except in direct response to an R_FRAME
// already received on this same goroutine, so flow control is
// automatic.
func (s *Session) serveLoop() error {
	for {
		idWords, err := wire.ReadWords(s.conn, 1)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch idWords[0] {
		case wire.RFrame:
			s.db.Advance(s.sampling)

			if err := s.emitter.Emit(s.conn, s.db); err != nil {
				return err
			}
			s.generation.Add(1)

		case wire.RStop:
			return nil

		default:
			return fmt.Errorf("%w: unexpected message id %d in running state", wire.ErrProtocol, idWords[0])
		}
	}
}
