package mavenindex

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"io"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	perr "indexcrawler/internal/platform/errors"
)

const (
	formatVersion  = 1
	noTimestamp    = -1
	maxFields      = 1 << 12
	maxValueBytes  = 32 * 1024 * 1024
	readBufferSize = 256 * 1024
)

// ErrCorrupt marks a segment that cannot be decoded
var ErrCorrupt = perr.New(perr.ErrorCodeCorrupt, "mavenindex: corrupt segment")

func corrupt(cause error, format string, a ...any) error {
	if cause != nil && !errors.Is(cause, io.EOF) && !errors.Is(cause, io.ErrUnexpectedEOF) {
		return perr.Wrapf(errors.Join(ErrCorrupt, cause), perr.ErrorCodeCorrupt, format, a...)
	}
	return perr.Wrapf(ErrCorrupt, perr.ErrorCodeCorrupt, format, a...)
}

// Reader streams documents from a gzip compressed segment
type Reader struct {
	src  io.Reader
	gz   *gzip.Reader
	br   *bufio.Reader
	meta Meta
	err  error
	buf  []byte
}

// NewReader reads the segment header from r. r is not closed by the Reader unless it is an io.Closer passed to Close
func NewReader(r io.Reader) (*Reader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, corrupt(err, "mavenindex: gzip header")
	}
	rd := &Reader{src: r, gz: gz, br: bufio.NewReaderSize(gz, readBufferSize)}

	v, err := rd.br.ReadByte()
	if err != nil {
		_ = gz.Close()
		return nil, corrupt(err, "mavenindex: missing version byte")
	}
	if v != formatVersion {
		_ = gz.Close()
		return nil, corrupt(nil, "mavenindex: unsupported format version %d", v)
	}
	ts, err := rd.readInt64()
	if err != nil {
		_ = gz.Close()
		return nil, corrupt(err, "mavenindex: missing timestamp")
	}
	rd.meta.Version = v
	if ts != noTimestamp {
		rd.meta.Published = time.UnixMilli(ts).UTC()
	}
	return rd, nil
}

// Next returns the next document, io.EOF once the segment is exhausted.
// Errors are sticky
func (rd *Reader) Next() (Document, error) {
	if rd.err != nil {
		return Document{}, rd.err
	}
	doc, err := rd.document()
	if err != nil {
		rd.err = err
		return Document{}, err
	}
	rd.meta.Documents++
	return doc, nil
}

// Meta returns the header timestamp and the number of documents read so far
func (rd *Reader) Meta() Meta { return rd.meta }

// Close releases the decompressor and closes the source when it is closable
func (rd *Reader) Close() error {
	var first error
	if rd.gz != nil {
		first = rd.gz.Close()
	}
	if c, ok := rd.src.(io.Closer); ok {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (rd *Reader) document() (Document, error) {
	var head [4]byte
	n, err := io.ReadFull(rd.br, head[:])
	switch {
	case err == io.EOF && n == 0:
		return Document{}, io.EOF
	case err != nil:
		return Document{}, corrupt(err, "mavenindex: truncated document header after %d documents", rd.meta.Documents)
	}
	count := int32(binary.BigEndian.Uint32(head[:]))
	if count < 0 || count > maxFields {
		return Document{}, corrupt(nil, "mavenindex: invalid field count %d", count)
	}

	doc := Document{Fields: make([]Field, 0, count)}
	for i := int32(0); i < count; i++ {
		f, err := rd.field()
		if err != nil {
			return Document{}, err
		}
		doc.Fields = append(doc.Fields, f)
	}
	return doc, nil
}

func (rd *Reader) field() (Field, error) {
	flags, err := rd.br.ReadByte()
	if err != nil {
		return Field{}, corrupt(err, "mavenindex: truncated field flags")
	}

	nameLen, err := rd.readUint16()
	if err != nil {
		return Field{}, corrupt(err, "mavenindex: truncated field name length")
	}
	name, err := rd.text(int(nameLen))
	if err != nil {
		return Field{}, err
	}

	valueLen, err := rd.readInt32()
	if err != nil {
		return Field{}, corrupt(err, "mavenindex: truncated value length of %q", name)
	}
	if valueLen < 0 || valueLen > maxValueBytes {
		return Field{}, corrupt(nil, "mavenindex: invalid value length %d for %q", valueLen, name)
	}
	value, err := rd.text(int(valueLen))
	if err != nil {
		return Field{}, err
	}
	return Field{Flags: flags, Name: name, Value: value}, nil
}

func (rd *Reader) text(n int) (string, error) {
	if cap(rd.buf) < n {
		rd.buf = make([]byte, n)
	}
	b := rd.buf[:n]
	if _, err := io.ReadFull(rd.br, b); err != nil {
		return "", corrupt(err, "mavenindex: truncated string of %d bytes", n)
	}
	return decodeModifiedUTF8(b)
}

func (rd *Reader) readUint16() (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(rd.br, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func (rd *Reader) readInt32() (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(rd.br, b[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

func (rd *Reader) readInt64() (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(rd.br, b[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}

// decodeModifiedUTF8 decodes the JVM string encoding: NUL is two bytes and
// supplementary characters are surrogate pairs of three bytes each
func decodeModifiedUTF8(b []byte) (string, error) {
	ascii := true
	for _, c := range b {
		if c == 0 || c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b), nil
	}

	out := make([]byte, 0, len(b))
	var high rune
	flushHigh := func() {
		if high != 0 {
			out = utf8.AppendRune(out, utf8.RuneError)
			high = 0
		}
	}
	for i := 0; i < len(b); {
		c := b[i]
		var r rune
		switch {
		case c < 0x80:
			r = rune(c)
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", corrupt(nil, "mavenindex: bad 2-byte sequence at %d", i)
			}
			r = rune(c&0x1F)<<6 | rune(b[i+1]&0x3F)
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", corrupt(nil, "mavenindex: bad 3-byte sequence at %d", i)
			}
			r = rune(c&0x0F)<<12 | rune(b[i+1]&0x3F)<<6 | rune(b[i+2]&0x3F)
			i += 3
		default:
			return "", corrupt(nil, "mavenindex: bad lead byte 0x%02x at %d", c, i)
		}

		switch {
		case utf16.IsSurrogate(r) && r < 0xDC00:
			flushHigh()
			high = r
		case utf16.IsSurrogate(r):
			if high == 0 {
				out = utf8.AppendRune(out, utf8.RuneError)
				continue
			}
			out = utf8.AppendRune(out, utf16.DecodeRune(high, r))
			high = 0
		default:
			flushHigh()
			out = utf8.AppendRune(out, r)
		}
	}
	flushHigh()
	return string(out), nil
}
