package trackstore

import (
	"encoding/binary"
	"io"

	"github.com/absfs/absfs"
)

// headerLen is the fixed size of a track file's header: free_head (8
// bytes) + free_tail (8 bytes).
const headerLen = 16

// Track owns one backing track file: its header, its free-list, and
// the allocate/read/write/remove operations on the fixed-size chunk
// slots within it. Data is stored in the track file as a singly-linked
// list of chunks; deleting a chain marks its slots invalid and splices
// them onto the track's own free-list for reuse by later allocations.
type Track struct {
	id    uint16
	file  absfs.File
	codec *ChunkCodec

	// size is the current logical length of the track file; it is
	// HEADER_LEN + k*CHUNK_SIZE for some k >= 0 and never shrinks.
	size uint64

	freeHead uint64
	freeTail uint64
}

// newTrack wraps an already-open file as track id. Init must be called
// before any other method.
func newTrack(id uint16, file absfs.File, codec *ChunkCodec) *Track {
	return &Track{id: id, file: file, codec: codec}
}

// ID returns the track's identifier.
func (t *Track) ID() uint16 {
	return t.id
}

// Close closes the track's underlying file. WriteEnd should be called
// first to persist the free-list header.
func (t *Track) Close() error {
	if err := t.file.Close(); err != nil {
		return NewIOError("close", t.id, err)
	}
	return nil
}

// Size returns the track file's current logical length in bytes.
func (t *Track) Size() uint64 {
	return t.size
}

// Init stats the backing file. If it is empty, a zero header is
// written and the logical size is set to headerLen. Otherwise the
// existing header is read into freeHead/freeTail and size is taken
// from the file's length.
func (t *Track) Init() error {
	info, err := t.file.Stat()
	if err != nil {
		return NewIOError("stat", t.id, err)
	}

	if info.Size() == 0 {
		return t.writeDefaultHeader()
	}

	t.size = uint64(info.Size())
	return t.readHeader()
}

func (t *Track) writeDefaultHeader() error {
	buf := make([]byte, headerLen)
	if err := t.writeFull(0, buf); err != nil {
		return err
	}
	t.size = headerLen
	return nil
}

func (t *Track) readHeader() error {
	buf := make([]byte, headerLen)
	if err := t.readFull(0, buf); err != nil {
		return err
	}
	t.freeHead = binary.BigEndian.Uint64(buf[0:8])
	t.freeTail = binary.BigEndian.Uint64(buf[8:16])
	return nil
}

// Alloc reserves a chunk-sized slot and returns its offset. The
// caller must immediately follow with Write of a fully encoded chunk:
// Alloc does not itself touch the reused slot's on-disk contents, so a
// reader racing ahead of the caller would see the slot's previous
// (invalid) contents.
func (t *Track) Alloc() (uint64, error) {
	if t.freeHead == 0 {
		offset := t.size
		t.size += uint64(t.codec.ChunkSize())
		return offset, nil
	}

	offset := t.freeHead
	chunk, err := t.Read(offset)
	if err != nil {
		return 0, err
	}

	if err := t.checkFreeOffset(chunk.NextOffset); err != nil {
		return 0, err
	}

	t.freeHead = chunk.NextOffset
	if t.freeHead == 0 {
		t.freeTail = 0
	}

	return offset, nil
}

// checkFreeOffset guards against a corrupt free-list: a next pointer
// that falls outside the file or doesn't land on a chunk boundary makes
// the track corrupt. A cycle among in-range, chunk-aligned offsets is
// not detected.
func (t *Track) checkFreeOffset(offset uint64) error {
	if offset == 0 {
		return nil
	}
	if offset < headerLen || offset >= t.size {
		return NewInvariantError(t.id, "free-list offset out of range")
	}
	if (offset-headerLen)%uint64(t.codec.ChunkSize()) != 0 {
		return NewInvariantError(t.id, "free-list offset is not chunk-aligned")
	}
	return nil
}

// Read fetches and decodes the chunk at offset.
func (t *Track) Read(offset uint64) (*Chunk, error) {
	buf := make([]byte, t.codec.ChunkSize())
	if err := t.readFull(offset, buf); err != nil {
		return nil, err
	}
	return t.codec.Decode(t.id, offset, buf)
}

// Write encodes chunk and writes it at offset.
func (t *Track) Write(offset uint64, chunk *Chunk) error {
	buf, err := t.codec.Encode(chunk)
	if err != nil {
		return err
	}
	return t.writeFull(offset, buf)
}

// Remove deletes the chain starting at headOffset within this track.
// Every visited slot is marked invalid and spliced onto this track's
// free-list. Remove returns the (track, offset) the chain continues at
// when it crosses into a different track, or nil when the chain ends
// within this track.
func (t *Track) Remove(headOffset uint64) (*Handle, error) {
	offset := headOffset

	for {
		chunk, err := t.Read(offset)
		if err != nil {
			return nil, err
		}

		if err := t.invalidate(offset); err != nil {
			return nil, err
		}
		if err := t.spliceFree(offset); err != nil {
			return nil, err
		}

		crossing := chunk.NextTrack != 0 && chunk.NextTrack != t.id
		if crossing {
			if err := t.persistFreeTail(); err != nil {
				return nil, err
			}
			return &Handle{Track: chunk.NextTrack, Offset: chunk.NextOffset}, nil
		}

		if !chunk.HasNext() {
			if err := t.persistFreeTail(); err != nil {
				return nil, err
			}
			return nil, nil
		}

		offset = chunk.NextOffset
	}
}

// invalidate flips the valid flag of the chunk record at offset to 0
// with a single positional byte write, per the fixed valid-flag offset
// chosen for this layout (see SPEC_FULL.md §2).
func (t *Track) invalidate(offset uint64) error {
	return t.writeFull(offset+validOffset, []byte{0})
}

// spliceFree appends the slot at offset to the free-list: it links the
// current tail's next_offset to offset (or seeds free_head on disk if
// the list was empty), clears offset's own next_offset (it is now the
// new tail), and updates the in-memory tail pointer.
func (t *Track) spliceFree(offset uint64) error {
	if t.freeTail == 0 {
		if err := t.persistFreeHead(offset); err != nil {
			return err
		}
		t.freeHead = offset
	} else if err := t.linkNext(t.freeTail, offset); err != nil {
		return err
	}

	if err := t.linkNext(offset, 0); err != nil {
		return err
	}

	t.freeTail = offset
	return nil
}

// linkNext overwrites the next_offset field (the first 8 bytes) of the
// chunk record at recordOffset.
func (t *Track) linkNext(recordOffset, next uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	return t.writeFull(recordOffset, buf)
}

// persistFreeHead writes value into the on-disk header's free_head
// field immediately, per §4.2's requirement that seeding an empty
// free-list during Remove is visible on disk right away.
func (t *Track) persistFreeHead(value uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, value)
	return t.writeFull(0, buf)
}

// persistFreeTail writes the in-memory free_tail into the on-disk
// header's free_tail field.
func (t *Track) persistFreeTail() error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, t.freeTail)
	return t.writeFull(8, buf)
}

// WriteEnd persists the in-memory free_head/free_tail into the on-disk
// header. It is not required after every operation, but must be
// called at least once before the Track's file is closed.
func (t *Track) WriteEnd() error {
	buf := make([]byte, headerLen)
	binary.BigEndian.PutUint64(buf[0:8], t.freeHead)
	binary.BigEndian.PutUint64(buf[8:16], t.freeTail)
	return t.writeFull(0, buf)
}

// readFull seeks to offset and reads exactly len(buf) bytes.
func (t *Track) readFull(offset uint64, buf []byte) error {
	if err := ValidateBuffer(buf, "buf", 1); err != nil {
		return err
	}
	if err := ValidateOffset(int64(offset), "offset"); err != nil {
		return err
	}
	if _, err := t.file.Seek(int64(offset), io.SeekStart); err != nil {
		return NewIOErrorAt("seek", t.id, offset, err)
	}
	if _, err := io.ReadFull(t.file, buf); err != nil {
		return NewIOErrorAt("read", t.id, offset, err)
	}
	return nil
}

// writeFull seeks to offset and writes all of buf.
func (t *Track) writeFull(offset uint64, buf []byte) error {
	if err := ValidateBuffer(buf, "buf", 1); err != nil {
		return err
	}
	if err := ValidateOffset(int64(offset), "offset"); err != nil {
		return err
	}
	if _, err := t.file.Seek(int64(offset), io.SeekStart); err != nil {
		return NewIOErrorAt("seek", t.id, offset, err)
	}
	for written := 0; written < len(buf); {
		n, err := t.file.Write(buf[written:])
		if err != nil {
			return NewIOErrorAt("write", t.id, offset, err)
		}
		written += n
	}
	return nil
}
