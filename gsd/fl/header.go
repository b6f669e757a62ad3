package fl

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/zeebo/xxh3"
)

const (
	// Magic identifies a GSD-Go file.
	Magic = "GSDGOTRJ"
	// FormatVersion is the container format version written by this package.
	FormatVersion uint32 = 1

	headerPrefixSize = len(Magic) + 4 + 4 // magic, format version, body length
	maxHeaderBody    = 1 << 16
	maxHeaderString  = math.MaxUint16
)

// Header is the fixed metadata at the start of every file.
type Header struct {
	FormatVersion uint32
	Schema        string
	SchemaVersion Version
	Application   string
}

func (h Header) validate() error {
	if len(h.Schema) > maxHeaderString {
		return fmt.Errorf("schema name longer than %d bytes", maxHeaderString)
	}
	if len(h.Application) > maxHeaderString {
		return fmt.Errorf("application longer than %d bytes", maxHeaderString)
	}
	return nil
}

// marshal encodes the header:
//
//	magic [8] | format version u32 | body length u32 | body | xxh3 u64
//
// where body is schema (u16 len + bytes), schema major u32, schema minor u32,
// application (u16 len + bytes). The checksum covers everything after the magic.
func (h Header) marshal() []byte {
	var body []byte
	body = appendString(body, h.Schema)
	body = binary.LittleEndian.AppendUint32(body, h.SchemaVersion.Major)
	body = binary.LittleEndian.AppendUint32(body, h.SchemaVersion.Minor)
	body = appendString(body, h.Application)

	out := make([]byte, 0, headerPrefixSize+len(body)+8)
	out = append(out, Magic...)
	out = binary.LittleEndian.AppendUint32(out, h.FormatVersion)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	out = append(out, body...)
	return binary.LittleEndian.AppendUint64(out, xxh3.Hash(out[len(Magic):]))
}

// readHeader decodes the header at the start of r and returns it with its encoded size.
func readHeader(r io.ReaderAt) (Header, int64, error) {
	prefix := make([]byte, headerPrefixSize)
	if _, err := r.ReadAt(prefix, 0); err != nil {
		return Header{}, 0, fmt.Errorf("%w: reading header: %w", ErrCorruptFile, err)
	}
	if !bytes.Equal(prefix[:len(Magic)], []byte(Magic)) {
		return Header{}, 0, fmt.Errorf("%w: bad magic %q", ErrCorruptFile, prefix[:len(Magic)])
	}
	version := binary.LittleEndian.Uint32(prefix[len(Magic):])
	if version == 0 || version > FormatVersion {
		return Header{}, 0, fmt.Errorf("%w: unsupported format version %d", ErrCorruptFile, version)
	}
	bodyLen := binary.LittleEndian.Uint32(prefix[len(Magic)+4:])
	if bodyLen > maxHeaderBody {
		return Header{}, 0, fmt.Errorf("%w: header body length %d", ErrCorruptFile, bodyLen)
	}

	total := int64(headerPrefixSize) + int64(bodyLen) + 8
	raw := make([]byte, total)
	if _, err := r.ReadAt(raw, 0); err != nil {
		return Header{}, 0, fmt.Errorf("%w: reading header body: %w", ErrCorruptFile, err)
	}
	sum := binary.LittleEndian.Uint64(raw[total-8:])
	if xxh3.Hash(raw[len(Magic):total-8]) != sum {
		return Header{}, 0, fmt.Errorf("%w: header checksum mismatch", ErrCorruptFile)
	}

	d := decoder{buf: raw[headerPrefixSize : total-8]}
	h := Header{FormatVersion: version}
	h.Schema = d.str()
	h.SchemaVersion.Major = d.u32()
	h.SchemaVersion.Minor = d.u32()
	h.Application = d.str()
	if d.err != nil {
		return Header{}, 0, fmt.Errorf("decoding header: %w", d.err)
	}
	if len(d.buf) != 0 {
		return Header{}, 0, fmt.Errorf("%w: %d trailing header bytes", ErrCorruptFile, len(d.buf))
	}
	return h, total, nil
}

// checkSchema compares the file's schema with the caller's expectation. An empty
// expected name disables the check. A file is compatible when the names match, the
// major versions match and the file's minor version is not newer than expected.
func checkSchema(got Header, name string, want Version) error {
	if name == "" {
		return nil
	}
	if got.Schema != name {
		return fmt.Errorf("%w: file schema %q, expected %q", ErrSchemaMismatch, got.Schema, name)
	}
	if got.SchemaVersion.Major != want.Major || got.SchemaVersion.Minor > want.Minor {
		return fmt.Errorf("%w: file %s version %s, expected %s", ErrSchemaMismatch, name, got.SchemaVersion, want)
	}
	return nil
}
