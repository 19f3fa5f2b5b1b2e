package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"github.com/code19m/errx"
)

// Reader reads newline delimited frames from a byte stream.
type Reader struct {
	br      *bufio.Reader
	maxSize int
}

// NewReader returns a Reader that rejects frames longer than maxSize bytes.
// A non-positive maxSize selects DefaultMaxFrameSize.
func NewReader(r io.Reader, maxSize int) *Reader {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}
	return &Reader{
		br:      bufio.NewReaderSize(r, min(maxSize+1, 64<<10)),
		maxSize: maxSize,
	}
}

// ReadFrame returns the next frame without its line terminator. Blank lines,
// including whitespace-only ones, are skipped.
//
// io.EOF is returned when the stream ends cleanly between frames and
// io.ErrUnexpectedEOF when it ends inside one. A frame over the limit yields
// an error for which IsFrameTooLarge is true; the rest of the stream is then
// unusable.
func (r *Reader) ReadFrame() ([]byte, error) {
	for {
		frame, err := r.readLine()
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(frame)) > 0 {
			return frame, nil
		}
	}
}

// Peek blocks until at least one more byte can be read, without consuming it.
// It returns the read error, such as io.EOF after the peer closed its side.
// A deadline error is not sticky: a later ReadFrame retries the stream.
func (r *Reader) Peek() error {
	_, err := r.br.Peek(1)
	return err
}

func (r *Reader) readLine() ([]byte, error) {
	var line []byte

	for {
		chunk, err := r.br.ReadSlice('\n')
		if len(line)+len(chunk) > r.maxSize+1 {
			return nil, errFrameTooLarge(r.maxSize)
		}
		line = append(line, chunk...)

		switch {
		case err == nil:
			return bytes.TrimRight(line, "\r\n"), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && len(bytes.TrimSpace(line)) > 0:
			return nil, io.ErrUnexpectedEOF
		default:
			return nil, err
		}
	}
}

// Writer writes newline delimited frames to a byte stream.
type Writer struct {
	bw *bufio.Writer
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// WriteFrame writes frame followed by '\n' and flushes.
func (w *Writer) WriteFrame(frame []byte) error {
	if bytes.IndexByte(frame, '\n') >= 0 {
		return errProtocol("frame contains a newline", errx.D{})
	}
	if _, err := w.bw.Write(frame); err != nil {
		return err
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		return err
	}
	return w.bw.Flush()
}

// WriteResponse encodes resp and writes it as one frame.
func (w *Writer) WriteResponse(resp Response) error {
	frame, err := Encode(resp)
	if err != nil {
		return err
	}
	return w.WriteFrame(frame)
}

// WriteRequest encodes req and writes it as one frame.
func (w *Writer) WriteRequest(req Request) error {
	frame, err := EncodeRequest(req)
	if err != nil {
		return err
	}
	return w.WriteFrame(frame)
}
