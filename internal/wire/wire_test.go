package wire

import (
	"bytes"
	"io"
	"testing"
)

func TestReadFullEOF(t *testing.T) {
	r := bytes.NewReader(nil)
	buf := make([]byte, 4)
	if err := ReadFull(r, buf); err != ErrEndOfFile {
		t.Fatalf("got %v, want ErrEndOfFile", err)
	}
}

func TestReadFullShort(t *testing.T) {
	r := bytes.NewReader([]byte{1, 2})
	buf := make([]byte, 4)
	if err := ReadFull(r, buf); err != ErrShortRead {
		t.Fatalf("got %v, want ErrShortRead", err)
	}
}

func TestWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.U32(0x676d4941)
	w.U16(3)
	w.U16(12)
	if w.Err() != nil {
		t.Fatal(w.Err())
	}

	r := bytes.NewReader(buf.Bytes())
	magic, err := ReadUint32(r)
	if err != nil || magic != 0x676d4941 {
		t.Fatalf("magic = %x, %v", magic, err)
	}
	version, _ := ReadUint16(r)
	if version != 3 {
		t.Fatalf("version = %d, want 3", version)
	}
	offset, _ := ReadUint16(r)
	if offset != 12 {
		t.Fatalf("offset = %d, want 12", offset)
	}
}

type partialWriter struct {
	buf    bytes.Buffer
	chunks []int
}

func (p *partialWriter) Write(b []byte) (int, error) {
	n := len(b)
	if n > 2 {
		n = 2
	}
	p.chunks = append(p.chunks, n)
	return p.buf.Write(b[:n])
}

func TestWriteFullRetriesPartialWrites(t *testing.T) {
	pw := &partialWriter{}
	data := []byte("hello world")
	if err := WriteFull(pw, data); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(pw.buf.Bytes(), data) {
		t.Fatalf("got %q, want %q", pw.buf.Bytes(), data)
	}
	if len(pw.chunks) < 2 {
		t.Fatalf("expected multiple partial writes, got %v", pw.chunks)
	}
}

var _ io.Writer = (*partialWriter)(nil)
