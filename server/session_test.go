package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/wireworld/cell"
	"github.com/sarchlab/wireworld/wire"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ = Describe("Session", func() {
	var (
		clientConn, serverConn net.Conn
		session                *Session
		done                   chan error
	)

	BeforeEach(func() {
		clientConn, serverConn = net.Pipe()
		session = NewSession(serverConn, &FullFrameEmitter{}, discardLogger())
		done = make(chan error, 1)
		go func() {
			done <- session.Run(context.Background())
		}()
	})

	It("accepts R_INIT then answers each R_FRAME with one rect update and a frame end", func() {
		frame := wire.Pack([]cell.Cell{cell.Wire, cell.Head, cell.Wire}, 3, 1)
		Expect(wire.WriteInit(clientConn, 3, 1, 1, frame)).To(Succeed())
		Expect(session.State()).NotTo(Equal(StateClosed))

		Expect(wire.WriteFrameRequest(clientConn)).To(Succeed())

		idWord, err := wire.ReadWords(clientConn, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(idWord[0]).To(Equal(wire.ARectUpdate))

		rect, payload, err := wire.ReadRectUpdateBody(clientConn, 3, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(rect).To(Equal(wire.Rect{X1: 0, Y1: 0, X2: 3, Y2: 1}))
		Expect(wire.Unpack(payload, 3, 1)).To(Equal([]cell.Cell{cell.Head, cell.Tail, cell.Head}))

		idWord, err = wire.ReadWords(clientConn, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(idWord[0]).To(Equal(wire.AFrameEnd))

		Eventually(func() int64 { return session.Generation() }).Should(Equal(int64(1)))

		Expect(wire.WriteStop(clientConn)).To(Succeed())
		Eventually(done).Should(Receive(BeNil()))
	})

	It("refuses to emit a second frame without an intervening R_FRAME", func() {
		frame := wire.Pack([]cell.Cell{cell.Wire}, 1, 1)
		Expect(wire.WriteInit(clientConn, 1, 1, 1, frame)).To(Succeed())
		Expect(wire.WriteFrameRequest(clientConn)).To(Succeed())

		_, err := wire.ReadWords(clientConn, 1) // A_RECT_UPDATE id
		Expect(err).NotTo(HaveOccurred())
		_, _, err = wire.ReadRectUpdateBody(clientConn, 1, 1)
		Expect(err).NotTo(HaveOccurred())
		idWord, err := wire.ReadWords(clientConn, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(idWord[0]).To(Equal(wire.AFrameEnd))

		// Without another R_FRAME there must be no further
		// A_RECT_UPDATE/A_FRAME_END traffic: a read times out.
		Expect(clientConn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))).To(Succeed())
		_, err = wire.ReadWords(clientConn, 1)
		Expect(err).To(HaveOccurred())

		Expect(clientConn.Close()).To(Succeed())
		Eventually(done, time.Second).Should(Receive())
	})

	It("rejects an unknown message id in the running state", func() {
		frame := wire.Pack([]cell.Cell{cell.Wire}, 1, 1)
		Expect(wire.WriteInit(clientConn, 1, 1, 1, frame)).To(Succeed())
		Expect(wire.WriteWords(clientConn, []uint32{99})).To(Succeed())

		var runErr error
		Eventually(done, time.Second).Should(Receive(&runErr))
		Expect(runErr).To(HaveOccurred())
	})
})

var _ = Describe("Session with a failing emitter", func() {
	It("surfaces the emitter's error from Run instead of hanging", func() {
		ctrl := gomock.NewController(GinkgoT())
		defer ctrl.Finish()

		emitFail := errors.New("disk full")
		emitter := NewMockFrameEmitter(ctrl)
		emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(emitFail)

		clientConn, serverConn := net.Pipe()
		session := NewSession(serverConn, emitter, discardLogger())

		done := make(chan error, 1)
		go func() { done <- session.Run(context.Background()) }()

		frame := wire.Pack([]cell.Cell{cell.Wire}, 1, 1)
		Expect(wire.WriteInit(clientConn, 1, 1, 1, frame)).To(Succeed())
		Expect(wire.WriteFrameRequest(clientConn)).To(Succeed())

		var runErr error
		Eventually(done, time.Second).Should(Receive(&runErr))
		Expect(runErr).To(MatchError(emitFail))
	})
})
