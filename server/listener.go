// Package server implements the headless Wireworld simulator server:
// a TCP listener that accepts a session, performs the R_INIT handshake,
// then drives an R_FRAME -> advance -> emit loop until the peer
// disconnects.
package server

import (
	"context"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DefaultBacklog is the backlog value the builder records, grounded on
// the original C server's SERVER_BACKLOG constant. Build does not pass it
// to the socket: net.Listen uses the operating system's default backlog.
const DefaultBacklog = 5

// ListenerBuilder configures and builds a Listener using a fluent With*
// builder, modeled on config.DeviceBuilder.
type ListenerBuilder struct {
	addr       string
	backlog    int
	log        *slog.Logger
	emitterNew func() FrameEmitter
}

// NewListenerBuilder returns a builder defaulting to ":8000" and the
// full-frame emitter, which sends each generation as a single rectangle.
func NewListenerBuilder() ListenerBuilder {
	return ListenerBuilder{
		addr:       ":8000",
		backlog:    DefaultBacklog,
		log:        slog.Default(),
		emitterNew: func() FrameEmitter { return &FullFrameEmitter{} },
	}
}

// WithAddr sets the listen address, e.g. ":8000" or "[::]:8000".
func (b ListenerBuilder) WithAddr(addr string) ListenerBuilder {
	b.addr = addr
	return b
}

// WithLogger sets the base logger; a session id field is attached per
// connection.
func (b ListenerBuilder) WithLogger(l *slog.Logger) ListenerBuilder {
	b.log = l
	return b
}

// WithDiffEmitter selects the multi-rectangle diffed emitter, which only
// sends sections that changed since the previous generation, instead of
// the full-frame emitter.
func (b ListenerBuilder) WithDiffEmitter(enabled bool) ListenerBuilder {
	if enabled {
		b.emitterNew = func() FrameEmitter { return &DiffEmitter{} }
	} else {
		b.emitterNew = func() FrameEmitter { return &FullFrameEmitter{} }
	}
	return b
}

// Listener accepts sessions sequentially; one active session at a time
// is the supported mode.
type Listener struct {
	ln         net.Listener
	log        *slog.Logger
	emitterNew func() FrameEmitter

	current atomic.Pointer[Session]
}

// Build opens the TCP listener. Go's "tcp" network already accepts both
// IPv4 and IPv6 on dual-stack-capable platforms, so no manual socket
// options are needed for dual-stack support where the OS provides it.
func (b ListenerBuilder) Build() (*Listener, error) {
	ln, err := net.Listen("tcp", b.addr)
	if err != nil {
		return nil, err
	}
	l := &Listener{ln: ln, log: b.log, emitterNew: b.emitterNew}
	atexit.Register(func() { _ = l.Close() })
	return l, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// CurrentSession returns the session presently being served, or nil
// between connections. For the /status endpoint.
func (l *Listener) CurrentSession() *Session { return l.current.Load() }

// Close stops accepting new connections.
func (l *Listener) Close() error { return l.ln.Close() }

// Serve accepts connections sequentially until ctx is canceled or Accept
// fails, running each one to completion before accepting the next.
func (l *Listener) Serve(ctx context.Context) error {
	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go func() {
		select {
		case <-ctx.Done():
			_ = l.ln.Close()
		case <-stopWatch:
		}
	}()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}

		sessionID := xid.New().String()
		log := l.log.With("session", sessionID, "remote", conn.RemoteAddr().String())
		sess := NewSession(conn, l.emitterNew(), log)

		l.current.Store(sess)
		err = sess.Run(ctx)
		l.current.Store(nil)

		if err != nil {
			log.Warn("session ended with error", "error", err)
		} else {
			log.Info("session ended")
		}
	}
}
