package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/wireworld/cell"
	"github.com/sarchlab/wireworld/wire"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestSession wires up a Session and a free-run FrameBuffer over a
// net.Pipe, bypassing Dial (which needs a real TCP dial) the same way
// server/session_test.go bypasses Listener.Serve to unit-test Session in
// isolation.
func newTestSession(width, height int) (clientConn net.Conn, session *Session, display *recordingDisplay) {
	var serverConn net.Conn
	clientConn, serverConn = net.Pipe()

	mirror := cell.NewGrid(width, height)
	session = &Session{
		conn:   serverConn,
		log:    discardLogger(),
		width:  width,
		height: height,
		mirror: mirror,
	}

	display = &recordingDisplay{}
	fb := NewFrameBuffer(DefaultMaxCredit, 0, display, func() error { return nil })
	session.Attach(fb)

	return clientConn, session, display
}

var _ = Describe("Session", func() {
	It("decodes R_INIT's successor A_RECT_UPDATE/A_FRAME_END into a delivered frame", func() {
		clientConn, session, display := newTestSession(3, 1)

		done := make(chan error, 1)
		go func() { done <- session.Run(context.Background()) }()

		frame := wire.Pack([]cell.Cell{cell.Wire, cell.Head, cell.Tail}, 3, 1)
		Expect(wire.WriteRectUpdate(clientConn, wire.Rect{X1: 0, Y1: 0, X2: 3, Y2: 1}, frame)).To(Succeed())
		Expect(wire.WriteFrameEnd(clientConn)).To(Succeed())

		Eventually(func() int { return len(display.shown) }).Should(Equal(1))
		got := display.shown[0]
		Expect(got.At(0, 0)).To(Equal(cell.Wire))
		Expect(got.At(1, 0)).To(Equal(cell.Head))
		Expect(got.At(2, 0)).To(Equal(cell.Tail))

		Expect(clientConn.Close()).To(Succeed())
		Eventually(done, time.Second).Should(Receive(BeNil()))
	})

	It("aborts with a protocol error when A_RECT_UPDATE declares an out-of-bounds rect", func() {
		clientConn, session, _ := newTestSession(2, 2)

		done := make(chan error, 1)
		go func() { done <- session.Run(context.Background()) }()

		// Only the header is sent: Run stops reading once it rejects the
		// rect, so a payload write on the unbuffered pipe would block.
		Expect(wire.WriteWords(clientConn, []uint32{wire.ARectUpdate, 0, 0, 2, 3})).To(Succeed())

		var runErr error
		Eventually(done, time.Second).Should(Receive(&runErr))
		Expect(errors.Is(runErr, wire.ErrProtocol)).To(BeTrue())
	})

	It("aborts with a protocol error on an unknown message id", func() {
		clientConn, session, _ := newTestSession(1, 1)

		done := make(chan error, 1)
		go func() { done <- session.Run(context.Background()) }()

		Expect(wire.WriteWords(clientConn, []uint32{99})).To(Succeed())

		var runErr error
		Eventually(done, time.Second).Should(Receive(&runErr))
		Expect(errors.Is(runErr, wire.ErrProtocol)).To(BeTrue())
	})

	It("returns nil on a clean EOF", func() {
		clientConn, session, _ := newTestSession(1, 1)

		done := make(chan error, 1)
		go func() { done <- session.Run(context.Background()) }()

		Expect(clientConn.Close()).To(Succeed())
		Eventually(done, time.Second).Should(Receive(BeNil()))
	})
})
