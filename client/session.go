package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/sarchlab/wireworld/cell"
	"github.com/sarchlab/wireworld/wire"
)

// Session drives one client-side connection: dial, send R_INIT, then
// decode A_RECT_UPDATE/A_FRAME_END messages into completed frames handed
// to a FrameBuffer. It owns the sole mutable mirror of the remote grid.
type Session struct {
	conn net.Conn
	log  *slog.Logger

	width, height, sampling int
	mirror                  *cell.Grid

	fb *FrameBuffer
}

// Dial connects to addr, sends R_INIT with the given initial frame, and
// returns a ready-to-run Session. fb's requestFrame callback should be
// the returned Session's RequestFrame method; callers typically construct
// fb after Dial succeeds, then call fb.Start().
func Dial(ctx context.Context, addr string, width, height, sampling int, initial []cell.Cell, log *slog.Logger) (*Session, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}

	frame := wire.Pack(initial, width, height)
	if err := wire.WriteInit(conn, width, height, sampling, frame); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("client: R_INIT: %w", err)
	}

	mirror := cell.NewGrid(width, height)
	wire.UnpackIntoGrid(frame, mirror, 0, 0, width, height)

	return &Session{
		conn:     conn,
		log:      log,
		width:    width,
		height:   height,
		sampling: sampling,
		mirror:   mirror,
	}, nil
}

// Attach binds the FrameBuffer that receives completed frames. Must be
// called once, before Run.
func (s *Session) Attach(fb *FrameBuffer) { s.fb = fb }

// RequestFrame sends R_FRAME. It is the requestFrame callback passed to
// NewFrameBuffer.
func (s *Session) RequestFrame() error {
	return wire.WriteFrameRequest(s.conn)
}

// Close sends R_STOP and closes the connection.
func (s *Session) Close() error {
	_ = wire.WriteStop(s.conn)
	return s.conn.Close()
}

// Run decodes A_RECT_UPDATE / A_FRAME_END messages until the connection
// closes or a protocol error occurs.
func (s *Session) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.conn.Close()
		case <-done:
		}
	}()

	for {
		idWords, err := wire.ReadWords(s.conn, 1)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch idWords[0] {
		case wire.ARectUpdate:
			rect, frame, err := wire.ReadRectUpdateBody(s.conn, s.width, s.height)
			if err != nil {
				return err
			}
			wire.UnpackIntoGrid(frame, s.mirror, rect.X1, rect.Y1, rect.X2, rect.Y2)

		case wire.AFrameEnd:
			if err := s.fb.Enqueue(s.mirror.Clone()); err != nil {
				return err
			}

		default:
			return fmt.Errorf("%w: unexpected message id %d awaiting header", wire.ErrProtocol, idWords[0])
		}
	}
}
