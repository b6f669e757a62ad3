package fl

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"
)

type cacheKey struct {
	nameID uint32
	frame  uint64
}

// File is an open GSD-Go file. It is opened in exactly one Mode for its lifetime and
// must be closed; Close commits a pending frame in Append mode.
type File struct {
	path   string
	mode   Mode
	file   *os.File
	opts   options
	header Header

	headerSize int64
	end        int64 // end of the committed region
	writePos   int64 // next write offset, >= end while a frame is pending
	frames     uint64
	ix         *index
	cache      *lru.Cache[cacheKey, []byte]

	pending      []IndexEntry
	pendingNames []string
	pendingIDs   map[string]uint32
	closed       bool
}

// Open opens the file at path. ReadOnly requires an existing file; Append creates the
// file (with a header built from the options) when it does not exist. In both modes the
// header is validated against WithSchema when given.
func Open(path string, mode Mode, opts ...Option) (*File, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var (
		osf *os.File
		err error
	)
	switch mode {
	case ReadOnly:
		osf, err = os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrFileNotFound, path, err)
		}
	case Append:
		osf, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	default:
		return nil, fmt.Errorf("invalid mode %v", mode)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	f, err := newFile(path, mode, osf, o)
	if err != nil {
		_ = osf.Close()
		return nil, err
	}
	return f, nil
}

// Create creates (or truncates) the file at path, writes a fresh header and returns it
// opened in Append mode.
func Create(path string, opts ...Option) (*File, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	osf, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	f, err := newFile(path, Append, osf, o)
	if err != nil {
		_ = osf.Close()
		return nil, err
	}
	return f, nil
}

// WithFile opens path, runs fn and closes the file on every path. When fn fails the
// pending frame is discarded instead of committed.
func WithFile(path string, mode Mode, fn func(f *File) error, opts ...Option) error {
	f, err := Open(path, mode, opts...)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.DiscardFrame()
		return errors.Join(err, f.Close())
	}
	return f.Close()
}

func newFile(path string, mode Mode, osf *os.File, o options) (*File, error) {
	f := &File{
		path:       path,
		mode:       mode,
		file:       osf,
		opts:       o,
		ix:         newIndex(),
		pendingIDs: make(map[string]uint32),
	}
	if o.cacheSize > 0 {
		cache, err := lru.New[cacheKey, []byte](o.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating chunk cache: %w", err)
		}
		f.cache = cache
	}

	stat, err := osf.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if stat.Size() == 0 && mode == Append {
		if err := f.writeHeader(); err != nil {
			return nil, err
		}
		stat, err = osf.Stat()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
	}

	h, headerSize, err := readHeader(osf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := checkSchema(h, o.schema, o.schemaVersion); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.header = h
	f.headerSize = headerSize

	if err := f.scan(stat.Size()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.end < stat.Size() {
		if mode == Append {
			logrus.Warnf("%s: truncating %d uncommitted trailing bytes", path, stat.Size()-f.end)
			if err := osf.Truncate(f.end); err != nil {
				return nil, fmt.Errorf("truncating uncommitted tail of %s: %w", path, err)
			}
		} else {
			logrus.Warnf("%s: ignoring %d uncommitted trailing bytes", path, stat.Size()-f.end)
		}
	}
	f.writePos = f.end
	logrus.Debugf("opened %s (%s): schema %s %s, %d frames, %d names, %d chunks",
		path, mode, h.Schema, h.SchemaVersion, f.frames, len(f.ix.names), f.ix.len())
	return f, nil
}

func (f *File) writeHeader() error {
	h := Header{
		FormatVersion: FormatVersion,
		Schema:        f.opts.schema,
		SchemaVersion: f.opts.schemaVersion,
		Application:   f.opts.application,
	}
	if err := h.validate(); err != nil {
		return err
	}
	if _, err := f.file.WriteAt(h.marshal(), 0); err != nil {
		return fmt.Errorf("writing header of %s: %w", f.path, err)
	}
	return nil
}

// scan replays the records after the header, rebuilding the index. The committed
// region ends after the last intact commit record. Only damage that reaches the end of
// the file counts as a torn append; a bad record followed by more data is ErrCorruptFile.
func (f *File) scan(size int64) error {
	f.end = f.headerSize
	pos := f.headerSize
	r := bufio.NewReaderSize(io.NewSectionReader(f.file, pos, size-pos), 1<<16)
	prefix := make([]byte, recordPrefixSize)
	for {
		if _, err := io.ReadFull(r, prefix); err != nil {
			return nil
		}
		kind := prefix[0]
		length := int64(binary.LittleEndian.Uint32(prefix[1:]))
		switch kind {
		case recordData:
			if pos+recordPrefixSize+length > size {
				return nil
			}
			if _, err := r.Discard(int(length)); err != nil {
				return nil
			}
			pos += recordPrefixSize + length
		case recordCommit:
			if pos+recordPrefixSize+length+checksumSize > size {
				return nil
			}
			rec := make([]byte, recordPrefixSize+length+checksumSize)
			copy(rec, prefix)
			if _, err := io.ReadFull(r, rec[recordPrefixSize:]); err != nil {
				return nil
			}
			body := rec[:len(rec)-checksumSize]
			if xxh3.Hash(body) != binary.LittleEndian.Uint64(rec[len(body):]) {
				if pos+int64(len(rec)) == size {
					logrus.Debugf("%s: torn commit record at offset %d", f.path, pos)
					return nil
				}
				return fmt.Errorf("%w: commit checksum mismatch at offset %d", ErrCorruptFile, pos)
			}
			c, err := unmarshalCommit(body[recordPrefixSize:])
			if err != nil {
				return fmt.Errorf("commit record at offset %d: %w", pos, err)
			}
			if err := f.apply(c, pos); err != nil {
				return fmt.Errorf("commit record at offset %d: %w", pos, err)
			}
			pos += int64(len(rec))
			f.end = pos
		default:
			zero, err := f.zeroFrom(pos, size)
			if err != nil {
				return err
			}
			if zero {
				logrus.Debugf("%s: zero-filled tail at offset %d", f.path, pos)
				return nil
			}
			return fmt.Errorf("%w: unknown record kind %d at offset %d", ErrCorruptFile, kind, pos)
		}
	}
}

// zeroFrom reports whether every byte in [pos, size) is zero, as left behind by a
// filesystem that extended the file before a crash.
func (f *File) zeroFrom(pos, size int64) (bool, error) {
	buf := make([]byte, 1<<16)
	for pos < size {
		n, err := f.file.ReadAt(buf[:min(int64(len(buf)), size-pos)], pos)
		if slices.ContainsFunc(buf[:n], func(b byte) bool { return b != 0 }) {
			return false, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("reading tail at offset %d: %w", pos, err)
		}
		if n == 0 {
			break
		}
		pos += int64(n)
	}
	return true, nil
}

// apply validates a decoded commit found at offset limit and publishes it.
func (f *File) apply(c commit, limit int64) error {
	if c.frame != f.frames {
		return fmt.Errorf("%w: frame %d committed after %d frames", ErrCorruptFile, c.frame, f.frames)
	}
	for _, name := range c.names {
		if _, dup := f.ix.lookup(name); dup || name == "" {
			return fmt.Errorf("%w: name %q interned twice", ErrCorruptFile, name)
		}
		f.ix.intern(name)
	}
	seen := make(map[uint32]bool, len(c.entries))
	for _, e := range c.entries {
		if int(e.NameID) >= len(f.ix.names) || seen[e.NameID] {
			return fmt.Errorf("%w: bad name id %d in frame %d", ErrCorruptFile, e.NameID, c.frame)
		}
		seen[e.NameID] = true
		if !e.Type.Valid() || e.Codec > CodecZstd {
			return fmt.Errorf("%w: bad type %v / codec %v for %q", ErrCorruptFile, e.Type, e.Codec, f.ix.names[e.NameID])
		}
		if e.Offset < uint64(f.headerSize) || e.Offset+uint64(e.StoredSize) > uint64(limit) {
			return fmt.Errorf("%w: chunk %q at offset %d outside data region", ErrCorruptFile, f.ix.names[e.NameID], e.Offset)
		}
		if e.Codec == CodecNone && int(e.StoredSize) != e.Len() {
			return fmt.Errorf("%w: chunk %q stores %d bytes for %dx%d %v", ErrCorruptFile, f.ix.names[e.NameID], e.StoredSize, e.N, e.M, e.Type)
		}
		f.ix.insert(e)
	}
	f.frames++
	return nil
}

func (f *File) checkWritable() error {
	if f.closed {
		return ErrClosed
	}
	if f.mode != Append {
		return fmt.Errorf("%s: %w", f.path, ErrReadOnly)
	}
	return nil
}

// WriteChunk appends one chunk to the pending frame (frame number FrameCount()). data
// holds n rows of m elements of type typ in little-endian order.
func (f *File) WriteChunk(name string, typ ElementType, n, m uint32, data []byte) error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	if name == "" || len(name) > math.MaxUint16 {
		return fmt.Errorf("%w: name length %d", ErrInvalidChunk, len(name))
	}
	if !typ.Valid() {
		return fmt.Errorf("%w: %q has unknown element type %v", ErrInvalidChunk, name, typ)
	}
	if want := int64(n) * int64(m) * int64(typ.Size()); want != int64(len(data)) || want > math.MaxUint32 {
		return fmt.Errorf("%w: %q is %dx%d %v (%d bytes) but got %d bytes", ErrInvalidChunk, name, n, m, typ, want, len(data))
	}

	id, known := f.ix.lookup(name)
	if !known {
		id, known = f.pendingIDs[name]
	}
	if known && slices.ContainsFunc(f.pending, func(e IndexEntry) bool { return e.NameID == id }) {
		return fmt.Errorf("%w: %q written twice in frame %d", ErrInvalidChunk, name, f.frames)
	}
	if !known {
		id = uint32(len(f.ix.names) + len(f.pendingNames))
	}

	codec, stored, err := compress(f.opts.codec, data)
	if err != nil {
		return err
	}
	rec := append(dataRecordPrefix(len(stored)), stored...)
	if _, err := f.file.WriteAt(rec, f.writePos); err != nil {
		return fmt.Errorf("writing chunk %q: %w", name, err)
	}

	if !known {
		f.pendingIDs[name] = id
		f.pendingNames = append(f.pendingNames, name)
	}
	f.pending = append(f.pending, IndexEntry{
		Frame:      f.frames,
		NameID:     id,
		Offset:     uint64(f.writePos + recordPrefixSize),
		N:          n,
		M:          m,
		Type:       typ,
		Codec:      codec,
		StoredSize: uint32(len(stored)),
		Checksum:   xxh3.Hash(stored),
	})
	f.writePos += int64(len(rec))
	return nil
}

// EndFrame commits the chunks written since the previous commit as frame FrameCount()
// and advances the frame counter. A frame with no chunks is valid.
func (f *File) EndFrame() error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	rec := marshalCommit(commit{frame: f.frames, names: f.pendingNames, entries: f.pending})
	if _, err := f.file.WriteAt(rec, f.writePos); err != nil {
		return fmt.Errorf("writing commit for frame %d: %w", f.frames, err)
	}
	if f.opts.sync {
		if err := f.file.Sync(); err != nil {
			return fmt.Errorf("syncing frame %d: %w", f.frames, err)
		}
	}

	for _, name := range f.pendingNames {
		f.ix.intern(name)
	}
	for _, e := range f.pending {
		f.ix.insert(e)
	}
	logrus.Debugf("%s: committed frame %d with %d chunks", f.path, f.frames, len(f.pending))
	f.frames++
	f.writePos += int64(len(rec))
	f.end = f.writePos
	f.resetPending()
	return nil
}

// DiscardFrame drops the chunks written since the previous commit. It is a no-op when
// nothing is pending or the file is read-only.
func (f *File) DiscardFrame() {
	if f.closed || f.mode != Append || f.writePos == f.end {
		f.resetPending()
		return
	}
	logrus.Debugf("%s: discarding %d pending chunks of frame %d", f.path, len(f.pending), f.frames)
	if err := f.file.Truncate(f.end); err != nil {
		// The bytes stay behind as unreferenced records; the next commit still lands after them.
		logrus.Warnf("%s: truncating discarded frame: %v", f.path, err)
	} else {
		f.writePos = f.end
	}
	f.resetPending()
}

func (f *File) resetPending() {
	f.pending = f.pending[:0]
	f.pendingNames = nil
	clear(f.pendingIDs)
}

// Pending reports whether chunks have been written since the last commit.
func (f *File) Pending() bool {
	return len(f.pending) > 0
}

// FindChunk returns the committed entry for name in frame. A missing name or frame is
// reported with ok == false and is not an error.
func (f *File) FindChunk(frame uint64, name string) (IndexEntry, bool) {
	id, ok := f.ix.lookup(name)
	if !ok || frame >= f.frames {
		return IndexEntry{}, false
	}
	return f.ix.find(id, frame)
}

// FindLatest returns the most recent committed entry for name at or before frame.
func (f *File) FindLatest(frame uint64, name string) (IndexEntry, bool) {
	id, ok := f.ix.lookup(name)
	if !ok || f.frames == 0 {
		return IndexEntry{}, false
	}
	return f.ix.latest(id, min(frame, f.frames-1))
}

// EntriesFor returns every committed entry for name in ascending frame order.
func (f *File) EntriesFor(name string) []IndexEntry {
	id, ok := f.ix.lookup(name)
	if !ok {
		return nil
	}
	return f.ix.entries(id)
}

// ReadChunk returns the decoded bytes of e. The caller owns the returned slice.
func (f *File) ReadChunk(e IndexEntry) ([]byte, error) {
	if f.closed {
		return nil, ErrClosed
	}
	key := cacheKey{nameID: e.NameID, frame: e.Frame}
	if f.cache != nil {
		if data, ok := f.cache.Get(key); ok {
			return slices.Clone(data), nil
		}
	}
	if e.Offset+uint64(e.StoredSize) > uint64(f.end) {
		return nil, fmt.Errorf("%w: chunk at offset %d beyond committed region", ErrCorruptFile, e.Offset)
	}

	stored := make([]byte, e.StoredSize)
	if _, err := f.file.ReadAt(stored, int64(e.Offset)); err != nil {
		return nil, fmt.Errorf("%w: reading chunk at offset %d: %w", ErrCorruptFile, e.Offset, err)
	}
	if xxh3.Hash(stored) != e.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch for chunk %q in frame %d", ErrCorruptFile, f.nameOf(e.NameID), e.Frame)
	}
	data, err := decompress(e.Codec, stored, e.Len())
	if err != nil {
		return nil, fmt.Errorf("chunk %q in frame %d: %w", f.nameOf(e.NameID), e.Frame, err)
	}
	if f.cache != nil {
		f.cache.Add(key, data)
		return slices.Clone(data), nil
	}
	return data, nil
}

func (f *File) nameOf(id uint32) string {
	if int(id) < len(f.ix.names) {
		return f.ix.names[id]
	}
	return fmt.Sprintf("#%d", id)
}

// FrameCount returns the number of committed frames.
func (f *File) FrameCount() uint64 {
	return f.frames
}

// Schema returns the schema name from the header.
func (f *File) Schema() string {
	return f.header.Schema
}

// SchemaVersion returns the schema version from the header.
func (f *File) SchemaVersion() Version {
	return f.header.SchemaVersion
}

// Application returns the application string from the header.
func (f *File) Application() string {
	return f.header.Application
}

// FormatVersion returns the container format version from the header.
func (f *File) FormatVersion() uint32 {
	return f.header.FormatVersion
}

// Names returns the committed name table in id order.
func (f *File) Names() []string {
	return slices.Clone(f.ix.names)
}

// ChunkCount returns the number of committed chunks.
func (f *File) ChunkCount() int {
	return f.ix.len()
}

// Size returns the size in bytes of the committed region.
func (f *File) Size() int64 {
	return f.end
}

// Mode returns the mode the file was opened with.
func (f *File) Mode() Mode {
	return f.mode
}

// Path returns the path the file was opened with.
func (f *File) Path() string {
	return f.path
}

// Close commits a pending frame (Append mode) and releases the handle. Calling Close
// more than once is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	var commitErr error
	if f.mode == Append && f.Pending() {
		commitErr = f.EndFrame()
		if commitErr != nil {
			f.DiscardFrame()
		}
	}
	f.closed = true
	if err := f.file.Close(); err != nil {
		return errors.Join(commitErr, fmt.Errorf("closing %s: %w", f.path, err))
	}
	return commitErr
}
