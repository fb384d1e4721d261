package trackstore

import "encoding/binary"

// headerBytes is the fixed size of a chunk record's header: 8 bytes
// next_offset + 2 bytes payload_size + 2 bytes next_track + 1 byte
// valid flag.
const headerBytes = 13

// validOffset is the byte offset, within a chunk record, of the valid
// flag. Track.Remove flips this single byte to invalidate a slot
// without touching any other field.
const validOffset = 12

// Chunk is one fixed-size on-disk record: up to MaxPayload bytes of
// payload plus linkage to the next chunk in its chain.
type Chunk struct {
	// NextOffset is the byte offset of the next chunk within NextTrack
	// (or the current track, if NextTrack is absent), or 0 if this is
	// the last chunk of its chain.
	NextOffset uint64

	// NextTrack is the id of the track the next chunk lives in, or 0 if
	// absent (the next chunk, if any, is in the same track).
	NextTrack uint16

	// Payload holds the chunk's user bytes (1..MaxPayload).
	Payload []byte

	// Valid is false when the slot is on a track's free-list.
	Valid bool
}

// HasNext reports whether the chunk has a successor in its chain.
func (c *Chunk) HasNext() bool {
	return c.NextOffset != 0
}

// ChunkCodec encodes and decodes fixed-size chunk records for a given
// chunk size.
type ChunkCodec struct {
	chunkSize  int
	maxPayload int
}

// NewChunkCodec creates a codec for the given chunk size. chunkSize
// must exceed headerBytes.
func NewChunkCodec(chunkSize int) (*ChunkCodec, error) {
	if err := ValidateChunkSize(chunkSize); err != nil {
		return nil, err
	}
	return &ChunkCodec{
		chunkSize:  chunkSize,
		maxPayload: chunkSize - headerBytes,
	}, nil
}

// ChunkSize returns the fixed on-disk size of a chunk record.
func (c *ChunkCodec) ChunkSize() int {
	return c.chunkSize
}

// MaxPayload returns the maximum number of payload bytes a single
// chunk can carry.
func (c *ChunkCodec) MaxPayload() int {
	return c.maxPayload
}

// Encode writes chunk into a freshly allocated buffer of exactly
// ChunkSize bytes, zero-padding anything beyond the payload.
func (c *ChunkCodec) Encode(chunk *Chunk) ([]byte, error) {
	if len(chunk.Payload) == 0 || len(chunk.Payload) > c.maxPayload {
		return nil, NewFormatError(chunk.NextTrack, chunk.NextOffset,
			"chunk payload must be between 1 and MaxPayload bytes")
	}

	buf := make([]byte, c.chunkSize)

	binary.BigEndian.PutUint64(buf[0:8], chunk.NextOffset)

	size := uint16(len(chunk.Payload))
	if len(chunk.Payload) == c.maxPayload {
		size = 0 // sentinel: exactly MaxPayload
	}
	binary.BigEndian.PutUint16(buf[8:10], size)

	binary.BigEndian.PutUint16(buf[10:12], chunk.NextTrack)

	if chunk.Valid {
		buf[validOffset] = 1
	}

	copy(buf[headerBytes:], chunk.Payload)

	return buf, nil
}

// Decode reverses Encode. buf must be exactly ChunkSize bytes.
// Decoding never fails on well-formed input; a payload_size beyond
// MaxPayload is reported as a *FormatError.
func (c *ChunkCodec) Decode(track uint16, offset uint64, buf []byte) (*Chunk, error) {
	if len(buf) != c.chunkSize {
		return nil, NewFormatError(track, offset, "truncated chunk record")
	}

	nextOffset := binary.BigEndian.Uint64(buf[0:8])

	size := int(binary.BigEndian.Uint16(buf[8:10]))
	if size == 0 {
		size = c.maxPayload
	}
	if err := ValidatePayloadSize(size, c.maxPayload); err != nil {
		return nil, NewFormatError(track, offset, err.Error())
	}

	nextTrack := binary.BigEndian.Uint16(buf[10:12])
	valid := buf[validOffset] != 0

	payload := make([]byte, size)
	copy(payload, buf[headerBytes:headerBytes+size])

	return &Chunk{
		NextOffset: nextOffset,
		NextTrack:  nextTrack,
		Payload:    payload,
		Valid:      valid,
	}, nil
}
