package trackstore

import (
	"testing"

	"github.com/absfs/memfs"
)

func openTestTrack(t *testing.T, id uint16, chunkSize int) *Track {
	t.Helper()

	fs, err := memfs.NewFS()
	if err != nil {
		t.Fatalf("memfs.NewFS failed: %v", err)
	}

	f, err := fs.Create("/track")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	codec, err := NewChunkCodec(chunkSize)
	if err != nil {
		t.Fatalf("NewChunkCodec failed: %v", err)
	}

	track := newTrack(id, f, codec)
	if err := track.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return track
}

func TestTrack_InitEmptyFile(t *testing.T) {
	track := openTestTrack(t, 1, 64)

	if track.Size() != headerLen {
		t.Errorf("Size() = %d, want %d", track.Size(), headerLen)
	}
	if track.freeHead != 0 || track.freeTail != 0 {
		t.Errorf("freeHead/freeTail = %d/%d, want 0/0", track.freeHead, track.freeTail)
	}
}

func TestTrack_AllocAppendsWhenFreeListEmpty(t *testing.T) {
	track := openTestTrack(t, 1, 64)

	first, err := track.Alloc()
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if first != headerLen {
		t.Errorf("first offset = %d, want %d", first, headerLen)
	}

	second, err := track.Alloc()
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if second != headerLen+64 {
		t.Errorf("second offset = %d, want %d", second, headerLen+64)
	}
	if track.Size() != headerLen+2*64 {
		t.Errorf("Size() = %d, want %d", track.Size(), headerLen+2*64)
	}
}

func TestTrack_WriteReadRoundTrip(t *testing.T) {
	track := openTestTrack(t, 1, 64)

	offset, err := track.Alloc()
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}

	want := &Chunk{Payload: []byte("payload"), Valid: true}
	if err := track.Write(offset, want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := track.Read(offset)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got.Payload) != string(want.Payload) {
		t.Errorf("Payload = %q, want %q", got.Payload, want.Payload)
	}
	if !got.Valid {
		t.Error("Valid = false, want true")
	}
}

// TestTrack_RemoveSplicesFreeList exercises P4 (reuse) and P7 (free-list
// integrity): after removing a 3-chunk chain, three allocations reuse its
// offsets, in the order they were freed, before the file grows again.
func TestTrack_RemoveSplicesFreeList(t *testing.T) {
	track := openTestTrack(t, 1, 64)

	var offsets []uint64
	for i := 0; i < 3; i++ {
		off, err := track.Alloc()
		if err != nil {
			t.Fatalf("Alloc failed: %v", err)
		}
		offsets = append(offsets, off)

		chunk := &Chunk{Payload: []byte{byte(i)}, Valid: true}
		if i+1 < 3 {
			chunk.NextOffset = off + 64
		}
		if err := track.Write(off, chunk); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	sizeBeforeRemove := track.Size()

	cross, err := track.Remove(offsets[0])
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if cross != nil {
		t.Fatalf("Remove returned cross-link %v, want nil", cross)
	}

	if track.freeHead != offsets[0] {
		t.Errorf("freeHead = %d, want %d (first slot freed)", track.freeHead, offsets[0])
	}
	if track.freeTail != offsets[2] {
		t.Errorf("freeTail = %d, want %d", track.freeTail, offsets[2])
	}

	// Walk the free-list and confirm it visits three offsets without
	// repetition (P7).
	seen := map[uint64]bool{}
	cur := track.freeHead
	steps := 0
	for cur != 0 {
		if seen[cur] {
			t.Fatalf("free-list cycle detected at offset %d", cur)
		}
		seen[cur] = true
		chunk, err := track.Read(cur)
		if err != nil {
			t.Fatalf("Read(%d) failed: %v", cur, err)
		}
		cur = chunk.NextOffset
		steps++
	}
	if steps != 3 {
		t.Errorf("free-list length = %d, want 3", steps)
	}

	// Reuse: the next three allocations reuse the freed offsets before
	// the file grows (P4, P5).
	reused := map[uint64]bool{}
	for i := 0; i < 3; i++ {
		off, err := track.Alloc()
		if err != nil {
			t.Fatalf("Alloc failed: %v", err)
		}
		if !seen[off] {
			t.Errorf("reused offset %d was not one of the freed offsets %v", off, offsets)
		}
		reused[off] = true
		if err := track.Write(off, &Chunk{Payload: []byte{0xFF}, Valid: true}); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if len(reused) != 3 {
		t.Errorf("reused %d distinct offsets, want 3", len(reused))
	}
	if track.Size() != sizeBeforeRemove {
		t.Errorf("Size() = %d after reuse, want unchanged %d", track.Size(), sizeBeforeRemove)
	}
	if track.freeHead != 0 || track.freeTail != 0 {
		t.Errorf("freeHead/freeTail = %d/%d after full reuse, want 0/0", track.freeHead, track.freeTail)
	}
}

func TestTrack_RemoveReportsCrossLink(t *testing.T) {
	track := openTestTrack(t, 1, 64)

	offset, err := track.Alloc()
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	chunk := &Chunk{NextOffset: headerLen, NextTrack: 2, Payload: []byte("x"), Valid: true}
	if err := track.Write(offset, chunk); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	cross, err := track.Remove(offset)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if cross == nil {
		t.Fatal("Remove returned nil cross-link, want (2, 16)")
	}
	if cross.Track != 2 || cross.Offset != headerLen {
		t.Errorf("cross-link = %v, want {2 16}", cross)
	}
}

// TestTrack_WriteEndRoundTrip exercises P6: re-initialising a track from
// its persisted header reproduces the same free_head/free_tail.
func TestTrack_WriteEndRoundTrip(t *testing.T) {
	track := openTestTrack(t, 1, 64)

	off, err := track.Alloc()
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if err := track.Write(off, &Chunk{Payload: []byte("x"), Valid: true}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := track.Remove(off); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := track.WriteEnd(); err != nil {
		t.Fatalf("WriteEnd failed: %v", err)
	}

	wantHead, wantTail := track.freeHead, track.freeTail

	reopened := newTrack(track.id, track.file, track.codec)
	if err := reopened.Init(); err != nil {
		t.Fatalf("re-Init failed: %v", err)
	}
	if reopened.freeHead != wantHead || reopened.freeTail != wantTail {
		t.Errorf("reopened free_head/free_tail = %d/%d, want %d/%d",
			reopened.freeHead, reopened.freeTail, wantHead, wantTail)
	}
	if reopened.Size() != track.Size() {
		t.Errorf("reopened Size() = %d, want %d", reopened.Size(), track.Size())
	}
}

func TestTrack_CheckFreeOffsetRejectsOutOfRange(t *testing.T) {
	track := openTestTrack(t, 1, 64)

	if err := track.checkFreeOffset(0); err != nil {
		t.Errorf("checkFreeOffset(0) = %v, want nil (absent is always valid)", err)
	}
	if err := track.checkFreeOffset(headerLen - 1); !IsInvariantError(err) {
		t.Errorf("checkFreeOffset(below header) = %v, want *InvariantError", err)
	}
	if err := track.checkFreeOffset(track.Size()); !IsInvariantError(err) {
		t.Errorf("checkFreeOffset(at size) = %v, want *InvariantError", err)
	}
	if err := track.checkFreeOffset(headerLen + 1); !IsInvariantError(err) {
		t.Errorf("checkFreeOffset(misaligned) = %v, want *InvariantError", err)
	}
}
