package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Client->Server message ids.
const (
	RInit  uint32 = 0
	RFrame uint32 = 1
	RStop  uint32 = 2
)

// Server->Client message ids.
const (
	ARectUpdate uint32 = 0
	AFrameEnd   uint32 = 1
)

// ErrProtocol is the sentinel wrapped by every protocol-level violation:
// unknown message id, out-of-bounds rectangle, or truncated payload.
// Any such violation is fatal: the session closes immediately with a
// diagnostic.
var ErrProtocol = errors.New("wire: protocol error")

// protocolErrorf wraps ErrProtocol with a formatted message, so callers
// can both log a precise diagnostic and errors.Is(err, ErrProtocol).
func protocolErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrProtocol, fmt.Sprintf(format, args...))
}

// ReadWords reads exactly count big-endian 32-bit words from r. A clean
// EOF before any byte of the message arrives is returned unwrapped as
// io.EOF, so callers can tell a peer closing between messages (a normal
// disconnect, equivalent to R_STOP) apart from a genuine truncation
// mid-message, which is a protocol error.
func ReadWords(r io.Reader, count int) ([]uint32, error) {
	buf := make([]byte, count*4)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, protocolErrorf("short read on %d-word message: %v", count, err)
	}

	words := make([]uint32, count)
	for i := range words {
		words[i] = binary.BigEndian.Uint32(buf[i*4 : i*4+4])
	}
	return words, nil
}

// WriteWords writes words to w as big-endian 32-bit words, retrying
// partial writes until the full byte count is sent or an error occurs,
// grounded on the original C server's sendMessages retry loop.
func WriteWords(w io.Writer, words []uint32) error {
	buf := make([]byte, len(words)*4)
	for i, word := range words {
		binary.BigEndian.PutUint32(buf[i*4:i*4+4], word)
	}

	for len(buf) > 0 {
		n, err := w.Write(buf)
		if err != nil {
			return fmt.Errorf("wire: write failed: %w", err)
		}
		buf = buf[n:]
	}
	return nil
}

// InitMessage is the payload of R_INIT: declared grid size, the sampling
// factor (fixed for the session's lifetime), and the initial frame.
type InitMessage struct {
	Width, Height int
	Sampling      int
	Frame         []uint32 // WordCount(Width, Height) words
}

// WriteInit sends an R_INIT message: id, width, height, sampling, then
// the packed initial frame, as one atomic sequence of words.
func WriteInit(w io.Writer, width, height, sampling int, frame []uint32) error {
	header := []uint32{RInit, uint32(width), uint32(height), uint32(sampling)}
	if err := WriteWords(w, header); err != nil {
		return err
	}
	return WriteWords(w, frame)
}

// ReadInitBody reads the R_INIT payload that follows an already-consumed
// R_INIT id word: width, height, sampling, then the packed frame.
func ReadInitBody(r io.Reader) (InitMessage, error) {
	header, err := ReadWords(r, 3)
	if err != nil {
		return InitMessage{}, err
	}
	width, height, sampling := int(header[0]), int(header[1]), int(header[2])
	if width <= 0 || height <= 0 {
		return InitMessage{}, protocolErrorf("R_INIT declared non-positive dimensions %dx%d", width, height)
	}
	if sampling <= 0 {
		return InitMessage{}, protocolErrorf("R_INIT declared non-positive sampling %d", sampling)
	}

	frame, err := ReadWords(r, WordCount(width, height))
	if err != nil {
		return InitMessage{}, err
	}

	return InitMessage{Width: width, Height: height, Sampling: sampling, Frame: frame}, nil
}

// WriteFrameRequest sends R_FRAME.
func WriteFrameRequest(w io.Writer) error {
	return WriteWords(w, []uint32{RFrame})
}

// WriteStop sends R_STOP.
func WriteStop(w io.Writer) error {
	return WriteWords(w, []uint32{RStop})
}

// Rect is an axis-aligned, exclusive-upper-bound rectangle in
// target-map (wire) coordinates.
type Rect struct {
	X1, Y1, X2, Y2 int
}

// Width and Height of the rectangle.
func (r Rect) Width() int  { return r.X2 - r.X1 }
func (r Rect) Height() int { return r.Y2 - r.Y1 }

// Validate checks the bounds invariant: x1 < x2 <= W, y1 < y2 <= H, and
// x1, y1 >= 0.
func (r Rect) Validate(width, height int) error {
	if r.X1 < 0 || r.Y1 < 0 {
		return protocolErrorf("rect (%d,%d)-(%d,%d) has negative origin", r.X1, r.Y1, r.X2, r.Y2)
	}
	if !(r.X1 < r.X2) || !(r.Y1 < r.Y2) {
		return protocolErrorf("rect (%d,%d)-(%d,%d) is not a valid interval", r.X1, r.Y1, r.X2, r.Y2)
	}
	if r.X2 > width || r.Y2 > height {
		return protocolErrorf("rect (%d,%d)-(%d,%d) exceeds map bounds %dx%d", r.X1, r.Y1, r.X2, r.Y2, width, height)
	}
	return nil
}

// WriteRectUpdate sends one A_RECT_UPDATE message: id, rect bounds, then
// the packed cell data for that rectangle.
func WriteRectUpdate(w io.Writer, rect Rect, frame []uint32) error {
	header := []uint32{
		ARectUpdate,
		uint32(rect.X1), uint32(rect.Y1),
		uint32(rect.X2), uint32(rect.Y2),
	}
	if err := WriteWords(w, header); err != nil {
		return err
	}
	return WriteWords(w, frame)
}

// ReadRectUpdateBody reads the A_RECT_UPDATE payload that follows an
// already-consumed A_RECT_UPDATE id word: the rectangle bounds and its
// packed cell data, validated against the session's declared width and
// height.
func ReadRectUpdateBody(r io.Reader, width, height int) (Rect, []uint32, error) {
	header, err := ReadWords(r, 4)
	if err != nil {
		return Rect{}, nil, err
	}
	rect := Rect{X1: int(header[0]), Y1: int(header[1]), X2: int(header[2]), Y2: int(header[3])}
	if err := rect.Validate(width, height); err != nil {
		return Rect{}, nil, err
	}

	frame, err := ReadWords(r, WordCount(rect.Width(), rect.Height()))
	if err != nil {
		return Rect{}, nil, err
	}
	return rect, frame, nil
}

// WriteFrameEnd sends A_FRAME_END.
func WriteFrameEnd(w io.Writer) error {
	return WriteWords(w, []uint32{AFrameEnd})
}
