package tzif

import (
	"bytes"
	"fmt"
	"io"
)

// Data represents a TZif file.
type Data struct {
	Version Version

	V1Header Header
	V1Data   DataBlock

	V2Header Header
	V2Data   DataBlock
	V2Footer Footer
}

// Block returns the authoritative header and data block: the version 2+
// block when present and the version 1 block otherwise.
func (d Data) Block() (Header, DataBlock) {
	if d.Version > V1 {
		return d.V2Header, d.V2Data
	}
	return d.V1Header, d.V1Data
}

// Footer returns the TZ string of the footer, or "" for V1 files.
func (d Data) Footer() string {
	if d.Version > V1 {
		return string(d.V2Footer.TZString)
	}
	return ""
}

// Encode writes the given TZif data to the given writer.
// If the version is V1, the V2 fields are not written.
func (d Data) Encode(w io.Writer) error {
	if err := d.V1Header.Write(w); err != nil {
		return fmt.Errorf("write v1 header: %w", err)
	}
	if err := d.V1Data.Write(w, V1TimeSize); err != nil {
		return fmt.Errorf("write v1 data: %w", err)
	}
	if d.Version > V1 {
		if err := d.V2Header.Write(w); err != nil {
			return fmt.Errorf("write v2 header: %w", err)
		}
		if err := d.V2Data.Write(w, V2TimeSize); err != nil {
			return fmt.Errorf("write v2 data: %w", err)
		}
		if err := d.V2Footer.Write(w); err != nil {
			return fmt.Errorf("write v2 footer: %w", err)
		}
	}
	return nil
}

// Decode decodes a complete TZif file held in memory. Octets after the
// footer are ignored.
func Decode(p []byte) (Data, error) {
	return DecodeData(bytes.NewReader(p))
}

// DecodeData reads the TZif Data from the given reader.
// If the version is V1, the V2 fields should be ignored.
// Errors are of type *FormatError and wrap one of the sentinel errors of
// this package.
func DecodeData(r io.Reader) (Data, error) {
	var (
		d   Data
		err error
	)
	d.V1Header, err = ReadHeader(r)
	if err != nil {
		return d, newFormatError("v1 header", err)
	}
	d.Version = d.V1Header.Version

	d.V1Data, err = ReadDataBlock(r, d.V1Header, V1TimeSize)
	if err != nil {
		return d, newFormatError("v1 data block", err)
	}

	if d.Version > V1 {
		d.V2Header, err = ReadHeader(r)
		if err != nil {
			return d, newFormatError("v2 header", err)
		}
		d.V2Data, err = ReadDataBlock(r, d.V2Header, V2TimeSize)
		if err != nil {
			return d, newFormatError("v2 data block", err)
		}
		d.V2Footer, err = ReadFooter(r)
		if err != nil {
			return d, newFormatError("footer", err)
		}
	}

	return d, nil
}
