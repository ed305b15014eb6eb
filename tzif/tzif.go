// Package tzif implements the TZif file format according to RFC8536.
// https://datatracker.ietf.org/doc/html/rfc8536
package tzif

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// NOTE: All multi-octet integer values MUST be stored in network octet
// order format (high-order octet first, otherwise known as big-endian),
// with all bits significant.  Signed integer values MUST be represented
// using two's complement.
var order = binary.BigEndian

// Version represents the version of a TZif file.
// In V1, time values are 32bit (four-octets). Files of version V2 upwards
// repeat the data in a second block with 64bit (eight-octets) time values.
type Version byte

func (v Version) String() string {
	switch v {
	case V1:
		return "V1 (0x00)"
	case V2:
		return "V2 (0x32)"
	case V3:
		return "V3 (0x33)"
	case V4:
		return "V4 (0x34)"
	default:
		return fmt.Sprintf("<undefined version (%d)>", v)
	}
}

// Known reports whether v is a version this package can decode.
func (v Version) Known() bool {
	return v == V1 || v == V2 || v == V3 || v == V4
}

const (
	// V1 files contain only the version 1 header and data block.
	V1 Version = 0x00
	// V2 files contain the version 1 header and data block, a version 2+
	// header and data block, and a footer with a POSIX TZ string.
	V2 Version = 0x32 // '2'
	// V3 is V2 with the TZ string extensions of RFC8536 section 3.3.1.
	V3 Version = 0x33 // '3'
	// V4 is specified in tzfile(5): the first leap second record may have a
	// correction other than +1 or -1, and a repeated final correction marks
	// the expiration of the leap second table.
	V4 Version = 0x34 // '4'
)

// Time sizes of the two data blocks in octets.
const (
	V1TimeSize = 4
	V2TimeSize = 8
)

// Magic is the four-octet ASCII sequence "TZif" (0x54 0x5A 0x69 0x66),
// which identifies the file as utilizing the Time Zone Information Format.
var Magic = [4]byte{'T', 'Z', 'i', 'f'}

// Header is the header of a TZif file.
//
// A TZif header is structured as follows (the lengths of multi-octet
// fields are shown in parentheses):
//
//	+---------------+---+
//	|  magic    (4) |ver|
//	+---------------+---+---------------------------------------+
//	|           [unused - reserved for future use] (15)         |
//	+---------------+---------------+---------------+-----------+
//	|  isutcnt  (4) |  isstdcnt (4) |  leapcnt  (4) |
//	+---------------+---------------+---------------+
//	|  timecnt  (4) |  typecnt  (4) |  charcnt  (4) |
//	+---------------+---------------+---------------+
type Header struct {
	Version  Version
	Reserved [15]byte

	// Isutcnt is the number of UT/local indicators, zero or typecnt.
	Isutcnt uint32
	// Isstdcnt is the number of standard/wall indicators, zero or typecnt.
	Isstdcnt uint32
	// Leapcnt is the number of leap-second records.
	Leapcnt uint32
	// Timecnt is the number of transition times.
	Timecnt uint32
	// Typecnt is the number of local time type records. MUST NOT be zero.
	Typecnt uint32
	// Charcnt is the number of octets of time zone designations,
	// including the trailing NUL. MUST NOT be zero.
	Charcnt uint32
}

// headerSize is the encoded size of a header including the magic.
const headerSize = 4 + 1 + 15 + 6*4

// Write writes the Header to w.
func (h Header) Write(w io.Writer) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	return binary.Write(w, order, h)
}

// ReadHeader reads a header including the magic. It fails with ErrBadMagic
// if the magic does not match and ErrUnsupportedVersion if the version
// octet is unknown.
func ReadHeader(r io.Reader) (Header, error) {
	var (
		h   Header
		buf [headerSize]byte
	)
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return h, fmt.Errorf("reading header: %w", err)
	}
	if !bytes.Equal(buf[:4], Magic[:]) {
		return h, fmt.Errorf("%w: %q", ErrBadMagic, buf[:4])
	}
	if err := binary.Read(bytes.NewReader(buf[4:]), order, &h); err != nil {
		return h, err
	}
	if !h.Version.Known() {
		return h, fmt.Errorf("%w: %v", ErrUnsupportedVersion, h.Version)
	}
	return h, nil
}

// DataSize returns the number of octets of the data block that follows h
// when time values are timeSize octets wide.
func (h Header) DataSize(timeSize int) int64 {
	ts := int64(timeSize)
	return int64(h.Timecnt)*ts +
		int64(h.Timecnt) +
		int64(h.Typecnt)*6 +
		int64(h.Charcnt) +
		int64(h.Leapcnt)*(ts+4) +
		int64(h.Isstdcnt) +
		int64(h.Isutcnt)
}

// DataBlock is a data block of a TZif file. The first block of a file
// stores four-octet times and the version 2+ block stores eight-octet times;
// both are decoded into the same structure with times widened to int64.
//
//	+---------------------------------------------------------+
//	|  transition times          (timecnt x TIME_SIZE)        |
//	+---------------------------------------------------------+
//	|  transition types          (timecnt)                    |
//	+---------------------------------------------------------+
//	|  local time type records   (typecnt x 6)                |
//	+---------------------------------------------------------+
//	|  time zone designations    (charcnt)                    |
//	+---------------------------------------------------------+
//	|  leap-second records       (leapcnt x (TIME_SIZE + 4))  |
//	+---------------------------------------------------------+
//	|  standard/wall indicators  (isstdcnt)                   |
//	+---------------------------------------------------------+
//	|  UT/local indicators       (isutcnt)                    |
//	+---------------------------------------------------------+
type DataBlock struct {
	// TransitionTimes are the instants at which the rules for computing
	// local time may change, sorted in ascending order.
	TransitionTimes []int64

	// TransitionTypes select the local time type record that applies from
	// the corresponding transition time on.
	TransitionTypes []uint8

	LocalTimeTypeRecords []LocalTimeTypeRecord

	// TimeZoneDesignation is the pool of NUL-terminated abbreviations the
	// local time type records index into.
	TimeZoneDesignation []byte

	LeapSecondRecords []LeapSecondRecord

	StandardWallIndicators []bool
	UTLocalIndicators      []bool
}

// Designation returns the NUL-terminated abbreviation that starts at idx in
// the designation pool. The returned string is a copy.
func (b DataBlock) Designation(idx uint8) (string, error) {
	pool := b.TimeZoneDesignation
	if int(idx) >= len(pool) {
		return "", fmt.Errorf("%w: index %d out of range [0, %d)", ErrMalformedAbbreviation, idx, len(pool))
	}
	end := bytes.IndexByte(pool[idx:], 0)
	if end < 0 {
		return "", fmt.Errorf("%w: no NUL after index %d", ErrMalformedAbbreviation, idx)
	}
	s := pool[idx : int(idx)+end]
	if !utf8.Valid(s) {
		return "", &EncodingError{Field: "abbreviation", Value: string(s)}
	}
	return string(s), nil
}

// Write writes the block with time values of timeSize octets.
func (b DataBlock) Write(w io.Writer, timeSize int) error {
	if timeSize != V1TimeSize && timeSize != V2TimeSize {
		return fmt.Errorf("invalid time size %d", timeSize)
	}
	bw := &blockWriter{w: w, timeSize: timeSize}
	for _, t := range b.TransitionTimes {
		bw.time(t)
	}
	bw.bytes(b.TransitionTypes)
	for _, r := range b.LocalTimeTypeRecords {
		if bw.err == nil {
			bw.err = r.Write(w)
		}
	}
	bw.bytes(b.TimeZoneDesignation)
	for _, r := range b.LeapSecondRecords {
		bw.time(r.Occur)
		bw.int32(r.Corr)
	}
	bw.bools(b.StandardWallIndicators)
	bw.bools(b.UTLocalIndicators)
	return bw.err
}

// blockWriter remembers the first error so that Write reads linearly.
type blockWriter struct {
	w        io.Writer
	timeSize int
	err      error
}

func (bw *blockWriter) time(t int64) {
	if bw.err != nil {
		return
	}
	if bw.timeSize == V1TimeSize {
		if t < math.MinInt32 || t > math.MaxInt32 {
			bw.err = fmt.Errorf("time value %d does not fit a 32-bit block", t)
			return
		}
		bw.int32(int32(t))
		return
	}
	bw.err = binary.Write(bw.w, order, t)
}

func (bw *blockWriter) int32(v int32) {
	if bw.err == nil {
		bw.err = binary.Write(bw.w, order, v)
	}
}

func (bw *blockWriter) bytes(p []byte) {
	if bw.err == nil {
		_, bw.err = bw.w.Write(p)
	}
}

func (bw *blockWriter) bools(v []bool) {
	if bw.err == nil && len(v) > 0 {
		bw.err = binary.Write(bw.w, order, v)
	}
}

// ReadDataBlock reads the data block described by h with time values of
// timeSize octets. It never allocates more than the input actually holds:
// the block is copied in as it arrives and a short read fails with
// ErrTruncated.
func ReadDataBlock(r io.Reader, h Header, timeSize int) (DataBlock, error) {
	var b DataBlock
	if timeSize != V1TimeSize && timeSize != V2TimeSize {
		return b, fmt.Errorf("invalid time size %d", timeSize)
	}
	size := h.DataSize(timeSize)
	var buf bytes.Buffer
	if n, err := io.CopyN(&buf, r, size); err != nil {
		if err == io.EOF {
			return b, fmt.Errorf("%w: data block needs %d octets, got %d", ErrTruncated, size, n)
		}
		return b, fmt.Errorf("reading data block: %w", err)
	}

	c := cursor{p: buf.Bytes(), timeSize: timeSize}
	if h.Timecnt > 0 {
		b.TransitionTimes = make([]int64, h.Timecnt)
		for i := range b.TransitionTimes {
			b.TransitionTimes[i] = c.time()
		}
		b.TransitionTypes = append([]uint8(nil), c.next(int(h.Timecnt))...)
	}
	if h.Typecnt > 0 {
		b.LocalTimeTypeRecords = make([]LocalTimeTypeRecord, h.Typecnt)
		for i := range b.LocalTimeTypeRecords {
			p := c.next(6)
			b.LocalTimeTypeRecords[i] = LocalTimeTypeRecord{
				Utoff: int32(order.Uint32(p)),
				Dst:   p[4] != 0,
				Idx:   p[5],
			}
		}
	}
	if h.Charcnt > 0 {
		b.TimeZoneDesignation = append([]byte(nil), c.next(int(h.Charcnt))...)
	}
	if h.Leapcnt > 0 {
		b.LeapSecondRecords = make([]LeapSecondRecord, h.Leapcnt)
		for i := range b.LeapSecondRecords {
			b.LeapSecondRecords[i].Occur = c.time()
			b.LeapSecondRecords[i].Corr = int32(order.Uint32(c.next(4)))
		}
	}
	if h.Isstdcnt > 0 {
		b.StandardWallIndicators = c.bools(int(h.Isstdcnt))
	}
	if h.Isutcnt > 0 {
		b.UTLocalIndicators = c.bools(int(h.Isutcnt))
	}
	return b, nil
}

// cursor walks a fully read data block. Bounds are guaranteed by DataSize.
type cursor struct {
	p        []byte
	timeSize int
}

func (c *cursor) next(n int) []byte {
	p := c.p[:n]
	c.p = c.p[n:]
	return p
}

func (c *cursor) time() int64 {
	if c.timeSize == V1TimeSize {
		return int64(int32(order.Uint32(c.next(4))))
	}
	return int64(order.Uint64(c.next(8)))
}

func (c *cursor) bools(n int) []bool {
	v := make([]bool, n)
	for i, o := range c.next(n) {
		v[i] = o != 0
	}
	return v
}

// LeapSecondRecord represents a leap-second record. Occur is four octets
// wide in the first block and eight octets wide in the version 2+ block.
//
//	+---------------+---------------+
//	|  occur (4/8)  |  corr (4)     |
//	+---------------+---------------+
type LeapSecondRecord struct {
	// Occur is the leap time at which the correction takes effect.
	Occur int64

	// Corr is the value of LEAPCORR on or after the occurrence.
	Corr int32
}

// LocalTimeTypeRecord represents a local time type record.
//
//	+---------------+---+---+
//	|  utoff (4)    |dst|idx|
//	+---------------+---+---+
type LocalTimeTypeRecord struct {
	// Utoff is the number of seconds added to UT to determine local time.
	Utoff int32

	// Dst reports whether local time of this type is daylight saving time.
	Dst bool

	// Idx is a zero-based index into the time zone designations.
	Idx uint8
}

func (r LocalTimeTypeRecord) Write(w io.Writer) error {
	var dst byte
	if r.Dst {
		dst = 1
	}
	var buf [6]byte
	order.PutUint32(buf[:4], uint32(r.Utoff))
	buf[4] = dst
	buf[5] = r.Idx
	_, err := w.Write(buf[:])
	return err
}

// Footer represents the footer of a version 2+ TZif file.
//
//	+---+--------------------+---+
//	| NL|  TZ string (0...)  |NL |
//	+---+--------------------+---+
type Footer struct {
	// TZString is a POSIX TZ string describing local time changes after
	// the last transition time of the version 2+ data block. It may be
	// empty.
	TZString []byte
}

var asciiNewLine = byte(0x0A)

func (f Footer) Write(w io.Writer) error {
	if bytes.IndexByte(f.TZString, asciiNewLine) >= 0 {
		return fmt.Errorf("TZ string %q contains a newline", f.TZString)
	}
	p := make([]byte, 0, len(f.TZString)+2)
	p = append(p, asciiNewLine)
	p = append(p, f.TZString...)
	p = append(p, asciiNewLine)
	_, err := w.Write(p)
	return err
}

func ReadFooter(r io.Reader) (Footer, error) {
	var (
		f   Footer
		buf [1]byte
	)
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return f, fmt.Errorf("reading newline: %w", err)
	}
	if buf[0] != asciiNewLine {
		return f, fmt.Errorf("%w: expected newline, got %#x", ErrMalformedFooter, buf[0])
	}
	var s []byte
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return f, fmt.Errorf("reading TZ string: %w", err)
		}
		if buf[0] == asciiNewLine {
			break
		}
		if buf[0] == 0 {
			return f, fmt.Errorf("%w: NUL in TZ string", ErrMalformedFooter)
		}
		s = append(s, buf[0])
	}
	f.TZString = s
	return f, nil
}
