package trackstore

import (
	"fmt"
)

// Input validation helpers for defensive programming.

// ValidateBuffer checks that a buffer is non-nil and at least minSize bytes.
func ValidateBuffer(buf []byte, name string, minSize int) error {
	if buf == nil {
		return &ValidationError{
			Field:   name,
			Message: "buffer cannot be nil",
		}
	}
	if minSize > 0 && len(buf) < minSize {
		return &ValidationError{
			Field:   name,
			Value:   len(buf),
			Message: fmt.Sprintf("buffer too small: got %d bytes, need at least %d bytes", len(buf), minSize),
		}
	}
	return nil
}

// ValidateOffset checks that a file offset is non-negative.
func ValidateOffset(offset int64, name string) error {
	if offset < 0 {
		return &ValidationError{
			Field:   name,
			Value:   offset,
			Message: "offset cannot be negative",
		}
	}
	return nil
}

// ValidatePayloadSize checks that a decoded payload size fits within maxPayload.
func ValidatePayloadSize(size, maxPayload int) error {
	if size < 0 {
		return &ValidationError{
			Field:   "payload_size",
			Value:   size,
			Message: "payload size cannot be negative",
		}
	}
	if size > maxPayload {
		return &ValidationError{
			Field:   "payload_size",
			Value:   size,
			Message: fmt.Sprintf("payload size %d exceeds max payload %d", size, maxPayload),
		}
	}
	return nil
}

// ValidateChunkSize checks that a configured chunk size leaves room for the header.
func ValidateChunkSize(chunkSize int) error {
	if chunkSize <= headerBytes {
		return &ValidationError{
			Field:   "chunk_size",
			Value:   chunkSize,
			Message: fmt.Sprintf("chunk size must exceed header size of %d bytes", headerBytes),
		}
	}
	return nil
}

// ValidateTrackID checks that a track id is non-zero (track ids start at 1).
func ValidateTrackID(id uint16, context string) error {
	if id == 0 {
		return &ValidationError{
			Field:   "track_id",
			Message: fmt.Sprintf("%s: track id 0 is not valid", context),
		}
	}
	return nil
}

// ValidateDirectory checks that a directory path is non-empty.
func ValidateDirectory(dir string) error {
	if dir == "" {
		return &ValidationError{
			Field:   "directory",
			Message: "directory cannot be empty",
		}
	}
	return nil
}
