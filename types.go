package trackstore

import "fmt"

// Options configures a Store.
type Options struct {
	// Directory holds the backing <id>.track files.
	Directory string

	// ChunkSize is the number of bytes per on-disk chunk record,
	// including the chunk header. Must exceed headerBytes.
	ChunkSize int

	// TrackSize is the maximum logical size, in bytes, a track file may
	// reach before the writer rolls over to a new track.
	TrackSize uint64
}

// DefaultChunkSize is used when Options.ChunkSize is left at zero.
const DefaultChunkSize = 4096

// DefaultTrackSize is used when Options.TrackSize is left at zero.
const DefaultTrackSize = 64 * 1024 * 1024

// withDefaults returns a copy of o with zero fields replaced by defaults.
func (o Options) withDefaults() Options {
	if o.ChunkSize == 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.TrackSize == 0 {
		o.TrackSize = DefaultTrackSize
	}
	return o
}

// Validate checks that the options are internally consistent.
func (o Options) Validate() error {
	if err := ValidateDirectory(o.Directory); err != nil {
		return err
	}
	if err := ValidateChunkSize(o.ChunkSize); err != nil {
		return err
	}
	if o.TrackSize <= uint64(o.ChunkSize) {
		return &ValidationError{
			Field:   "track_size",
			Value:   o.TrackSize,
			Message: fmt.Sprintf("track size must exceed chunk size of %d bytes", o.ChunkSize),
		}
	}
	return nil
}

// Handle is the public identifier of a blob's first chunk: a track id and
// a byte offset within that track file. Callers persist this externally
// and present it back to Store.Read/Store.Remove.
type Handle struct {
	Track  uint16
	Offset uint64
}

// String renders the handle as "track:offset", useful in logs.
func (h Handle) String() string {
	return fmt.Sprintf("%d:%d", h.Track, h.Offset)
}
