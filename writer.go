package trackstore

import "math"

// WriterEventKind identifies what a streamWriter is asking its caller
// to do after a write call.
type WriterEventKind uint8

const (
	// eventNone means the writer consumed the payload and needs nothing
	// from the caller yet.
	eventNone WriterEventKind = iota

	// eventCreateTrack asks the caller to create and initialise a new
	// track with the given id before the writer continues.
	eventCreateTrack

	// eventFirstIndex reports the blob's head handle; the write is
	// complete.
	eventFirstIndex
)

// WriterEvent is the result of one streamWriter.write call.
type WriterEvent struct {
	Kind   WriterEventKind
	Track  uint16
	Offset uint64
}

// streamWriter splits an input byte source into fixed-size chunks,
// threading next_offset/next_track pointers between them. Each chunk is
// held as pending and written to disk, in full and with its link, once
// the slot of the chunk after it has been allocated, or as the chain's
// last chunk at end-of-input ("pending" discipline).
type streamWriter struct {
	tracks    map[uint16]*Track
	trackSize uint64

	curTrack uint16

	haveHead  bool
	headTrack uint16
	headOffset uint64

	havePending    bool
	pendingTrack   uint16
	pendingOffset  uint64
	pendingPayload []byte
}

// newStreamWriter creates a writer that starts allocating from
// startTrack and rolls over to a new track once a track has no free
// slot to reuse and its logical size would exceed trackSize.
func newStreamWriter(tracks map[uint16]*Track, startTrack uint16, trackSize uint64) *streamWriter {
	return &streamWriter{
		tracks:    tracks,
		trackSize: trackSize,
		curTrack:  startTrack,
	}
}

// write accepts one payload slice (1..MaxPayload bytes) from the
// source, or an empty/nil slice to signal end-of-input. It returns an
// event the caller must act on before calling write again:
// eventCreateTrack to materialize a new track, eventFirstIndex when the
// blob is fully written, or eventNone to simply continue.
func (w *streamWriter) write(payload []byte) (*WriterEvent, error) {
	if len(payload) == 0 {
		return w.finish()
	}

	track, ev, err := w.currentTrack()
	if ev != nil || err != nil {
		return ev, err
	}

	offset, err := track.Alloc()
	if err != nil {
		return nil, err
	}

	if !w.haveHead {
		w.haveHead = true
		w.headTrack = w.curTrack
		w.headOffset = offset
	}

	if w.havePending {
		if err := w.flushPending(w.curTrack, offset, false); err != nil {
			return nil, err
		}
	}

	w.havePending = true
	w.pendingTrack = w.curTrack
	w.pendingOffset = offset
	w.pendingPayload = append([]byte(nil), payload...)

	return &WriterEvent{Kind: eventNone}, nil
}

// currentTrack returns the track to allocate from, asking the caller
// to create a new one first if the current track has no free slot and
// has reached its configured capacity.
func (w *streamWriter) currentTrack() (*Track, *WriterEvent, error) {
	track, ok := w.tracks[w.curTrack]
	if !ok {
		return nil, nil, NewInvariantError(w.curTrack, "writer's current track does not exist")
	}

	chunkSize := uint64(track.codec.ChunkSize())
	if track.freeHead == 0 && track.Size()+chunkSize > w.trackSize {
		if w.curTrack == math.MaxUint16 {
			return nil, nil, NewCapacityError("all 65535 track ids are exhausted")
		}
		nextID := w.curTrack + 1
		if _, exists := w.tracks[nextID]; !exists {
			return nil, &WriterEvent{Kind: eventCreateTrack, Track: nextID}, nil
		}
		w.curTrack = nextID
		return w.currentTrack()
	}

	return track, nil, nil
}

// finish writes the pending slot (if any) as the chain's end and
// reports the head handle.
func (w *streamWriter) finish() (*WriterEvent, error) {
	if w.havePending {
		if err := w.flushPending(0, 0, true); err != nil {
			return nil, err
		}
	}

	if !w.haveHead {
		return nil, ErrEmptyChain
	}

	return &WriterEvent{Kind: eventFirstIndex, Track: w.headTrack, Offset: w.headOffset}, nil
}

// flushPending writes the pending slot now that its successor (if any)
// is known: nextTrack/nextOffset when a new slot follows, or an absent
// link when last is true.
func (w *streamWriter) flushPending(nextTrack uint16, nextOffset uint64, last bool) error {
	track, ok := w.tracks[w.pendingTrack]
	if !ok {
		return NewInvariantError(w.pendingTrack, "pending slot's track does not exist")
	}

	chunk := &Chunk{
		Payload: w.pendingPayload,
		Valid:   true,
	}
	if !last {
		chunk.NextOffset = nextOffset
		if nextTrack != w.pendingTrack {
			chunk.NextTrack = nextTrack
		}
	}

	if err := track.Write(w.pendingOffset, chunk); err != nil {
		return err
	}

	w.havePending = false
	w.pendingPayload = nil
	return nil
}
