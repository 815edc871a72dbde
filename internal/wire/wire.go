// Package wire provides little-endian binary struct helpers shared by the
// anim, qoif, and qoif2 codecs, along with a sentinel error taxonomy
// (EndOfFile, ShortRead, FileError, BadFileTypeForReader) distinguishing
// truncated input from a genuinely unrecognized format.
package wire

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Sentinel errors shared across every codec. BadFileType is a probe signal
// used by the dispatch layer to try the next reader, not a user-facing
// error; the others abort the decode attempt.
var (
	ErrEndOfFile   = errors.New("anim: unexpected end of file")
	ErrShortRead   = errors.New("anim: short read")
	ErrBadFileType = errors.New("anim: bad file type for reader")
)

// ValidationError reports a semantic violation of a wire format: a field
// held a value other than what the format requires.
type ValidationError struct {
	Field    string
	Expected string
	Observed string
}

func (e *ValidationError) Error() string {
	return "anim: field " + e.Field + ": expected " + e.Expected + ", got " + e.Observed
}

// NewValidationError builds a FileError-class ValidationError and wraps it
// with the given context string (the codecs pass their format name).
func NewValidationError(path, field, expected, observed string) error {
	return errors.Wrap(&ValidationError{Field: field, Expected: expected, Observed: observed}, path)
}

// ReadFull reads exactly len(buf) bytes from r, translating io.EOF on the
// first byte to ErrEndOfFile (an expected terminator during framing) and
// any other short read to ErrShortRead.
func ReadFull(r io.Reader, buf []byte) error {
	n, err := io.ReadFull(r, buf)
	if err == nil {
		return nil
	}
	if err == io.EOF && n == 0 {
		return ErrEndOfFile
	}
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return ErrShortRead
	}
	return errors.Wrap(err, "read")
}

// ReadUint8 reads a single byte.
func ReadUint8(r io.Reader) (uint8, error) {
	var b [1]byte
	if err := ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 reads a little-endian u16.
func ReadUint16(r io.Reader) (uint16, error) {
	var b [2]byte
	if err := ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

// ReadUint32 reads a little-endian u32.
func ReadUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if err := ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// Writer accumulates little-endian field writes into a caller-supplied
// io.Writer, matching the mux package's header-then-payload chunk style:
// callers build up a frame/chunk incrementally rather than allocating one
// contiguous buffer up front.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// Err returns the first error encountered by any write call.
func (wr *Writer) Err() error { return wr.err }

func (wr *Writer) write(b []byte) {
	if wr.err != nil {
		return
	}
	_, wr.err = wr.w.Write(b)
}

// U8 writes a single byte.
func (wr *Writer) U8(v uint8) { wr.write([]byte{v}) }

// U16 writes a little-endian u16.
func (wr *Writer) U16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	wr.write(b[:])
}

// U32 writes a little-endian u32.
func (wr *Writer) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	wr.write(b[:])
}

// Bytes writes raw bytes unchanged.
func (wr *Writer) Bytes(b []byte) { wr.write(b) }

// WriteFull writes all of b to w, retrying partial writes until it is
// fully drained, since io.Writer is not guaranteed to write the whole
// slice in one call.
func WriteFull(w io.Writer, b []byte) error {
	for written := 0; written < len(b); {
		n, err := w.Write(b[written:])
		if err != nil {
			return err
		}
		written += n
	}
	return nil
}

// RetryWriter wraps an io.Writer so every Write call is internally retried
// to completion via WriteFull, matching convert.py's explicit
// "while written < len(chunk)" loop around each output file write.
type RetryWriter struct {
	W io.Writer
}

func (rw RetryWriter) Write(b []byte) (int, error) {
	if err := WriteFull(rw.W, b); err != nil {
		return 0, err
	}
	return len(b), nil
}
