package fl

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/xxh3"
)

// Record kinds following the header.
const (
	recordData   uint8 = 1
	recordCommit uint8 = 2
)

const (
	recordPrefixSize = 1 + 4 // kind, payload length
	checksumSize     = 8
	entrySize        = 4 + 8 + 4 + 4 + 1 + 1 + 4 + 8
)

// commit is the decoded payload of a commit record.
type commit struct {
	frame   uint64
	names   []string // names interned by this frame, in id order
	entries []IndexEntry
}

// marshalCommit encodes c as a complete commit record, prefix and checksum included.
func marshalCommit(c commit) []byte {
	payload := binary.LittleEndian.AppendUint64(nil, c.frame)
	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(c.names)))
	for _, name := range c.names {
		payload = appendString(payload, name)
	}
	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(c.entries)))
	for _, e := range c.entries {
		payload = binary.LittleEndian.AppendUint32(payload, e.NameID)
		payload = binary.LittleEndian.AppendUint64(payload, e.Offset)
		payload = binary.LittleEndian.AppendUint32(payload, e.N)
		payload = binary.LittleEndian.AppendUint32(payload, e.M)
		payload = append(payload, byte(e.Type), byte(e.Codec))
		payload = binary.LittleEndian.AppendUint32(payload, e.StoredSize)
		payload = binary.LittleEndian.AppendUint64(payload, e.Checksum)
	}

	out := make([]byte, 0, recordPrefixSize+len(payload)+checksumSize)
	out = append(out, recordCommit)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
	out = append(out, payload...)
	return binary.LittleEndian.AppendUint64(out, xxh3.Hash(out))
}

// unmarshalCommit decodes a commit payload. Structural problems are reported as
// ErrCorruptFile; semantic checks against the index happen in the caller.
func unmarshalCommit(payload []byte) (commit, error) {
	d := decoder{buf: payload}
	c := commit{frame: d.u64()}
	nNames := d.u32()
	if d.err == nil && int64(nNames)*2 > int64(len(d.buf)) {
		return commit{}, fmt.Errorf("%w: commit declares %d names in %d bytes", ErrCorruptFile, nNames, len(d.buf))
	}
	for i := uint32(0); i < nNames && d.err == nil; i++ {
		c.names = append(c.names, d.str())
	}
	nEntries := d.u32()
	if d.err == nil && int64(nEntries)*entrySize != int64(len(d.buf)) {
		return commit{}, fmt.Errorf("%w: commit declares %d entries in %d bytes", ErrCorruptFile, nEntries, len(d.buf))
	}
	c.entries = make([]IndexEntry, 0, nEntries)
	for i := uint32(0); i < nEntries && d.err == nil; i++ {
		e := IndexEntry{Frame: c.frame}
		e.NameID = d.u32()
		e.Offset = d.u64()
		e.N = d.u32()
		e.M = d.u32()
		e.Type = ElementType(d.u8())
		e.Codec = Codec(d.u8())
		e.StoredSize = d.u32()
		e.Checksum = d.u64()
		c.entries = append(c.entries, e)
	}
	if d.err != nil {
		return commit{}, fmt.Errorf("decoding commit record: %w", d.err)
	}
	return c, nil
}

func dataRecordPrefix(size int) []byte {
	out := make([]byte, 0, recordPrefixSize)
	out = append(out, recordData)
	return binary.LittleEndian.AppendUint32(out, uint32(size))
}
