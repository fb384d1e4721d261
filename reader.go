package trackstore

// streamReader walks a chunk chain across one or more tracks, yielding
// each chunk's payload in order.
type streamReader struct {
	tracks    map[uint16]*Track
	curTrack  uint16
	curOffset uint64
}

// newStreamReader seeds a reader at the chain's head handle.
func newStreamReader(tracks map[uint16]*Track, track uint16, offset uint64) *streamReader {
	return &streamReader{
		tracks:    tracks,
		curTrack:  track,
		curOffset: offset,
	}
}

// read fetches the current chunk's payload and advances the reader to
// its successor. hasMore is true iff the chunk has a next chunk to
// follow; once false, the caller must stop.
func (r *streamReader) read() (payload []byte, hasMore bool, err error) {
	track, ok := r.tracks[r.curTrack]
	if !ok {
		return nil, false, NewInvariantError(r.curTrack, "chunk chain references an unknown track")
	}

	chunk, err := track.Read(r.curOffset)
	if err != nil {
		return nil, false, err
	}

	hasMore = chunk.HasNext()
	if hasMore {
		if chunk.NextTrack != 0 {
			r.curTrack = chunk.NextTrack
		}
		r.curOffset = chunk.NextOffset
	}

	return chunk.Payload, hasMore, nil
}
