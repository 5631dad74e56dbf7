package mavenindex

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"io"
	"time"
	"unicode/utf16"
)

// Writer produces segments in the format Reader consumes. Used for fixtures and local mirrors
type Writer struct {
	gz  *gzip.Writer
	bw  *bufio.Writer
	err error
}

// NewWriter writes the segment header to w; a zero published time is stored as absent
func NewWriter(w io.Writer, published time.Time) *Writer {
	gz := gzip.NewWriter(w)
	wr := &Writer{gz: gz, bw: bufio.NewWriter(gz)}
	ts := int64(noTimestamp)
	if !published.IsZero() {
		ts = published.UnixMilli()
	}
	wr.put([]byte{formatVersion})
	wr.put(binary.BigEndian.AppendUint64(nil, uint64(ts)))
	return wr
}

// Write appends one document
func (w *Writer) Write(doc Document) error {
	w.put(binary.BigEndian.AppendUint32(nil, uint32(len(doc.Fields))))
	for _, f := range doc.Fields {
		name := encodeModifiedUTF8(f.Name)
		value := encodeModifiedUTF8(f.Value)
		w.put([]byte{f.Flags})
		w.put(binary.BigEndian.AppendUint16(nil, uint16(len(name))))
		w.put(name)
		w.put(binary.BigEndian.AppendUint32(nil, uint32(len(value))))
		w.put(value)
	}
	return w.err
}

// Close flushes buffered data and finishes the gzip stream. The underlying writer stays open
func (w *Writer) Close() error {
	if w.err == nil {
		w.err = w.bw.Flush()
	}
	if err := w.gz.Close(); err != nil && w.err == nil {
		w.err = err
	}
	return w.err
}

func (w *Writer) put(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.bw.Write(b)
}

func encodeModifiedUTF8(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r == 0:
			out = append(out, 0xC0, 0x80)
		case r < 0x80:
			out = append(out, byte(r))
		case r < 0x800:
			out = append(out, 0xC0|byte(r>>6), 0x80|byte(r&0x3F))
		case r < 0x10000:
			out = append(out, 0xE0|byte(r>>12), 0x80|byte((r>>6)&0x3F), 0x80|byte(r&0x3F))
		default:
			hi, lo := utf16.EncodeRune(r)
			for _, c := range []rune{hi, lo} {
				out = append(out, 0xE0|byte(c>>12), 0x80|byte((c>>6)&0x3F), 0x80|byte(c&0x3F))
			}
		}
	}
	return out
}
