package trackstore

import (
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/absfs/absfs"
	"github.com/google/uuid"
)

// flusher is implemented by sinks that buffer writes and need an
// explicit final flush. Store.Read calls Flush, if present, once the
// chain has been fully streamed out.
type flusher interface {
	Flush() error
}

// Store owns the set of tracks backing one directory and drives
// streaming read/write/remove operations across them.
type Store struct {
	fs    absfs.FileSystem
	opts  Options
	codec *ChunkCodec
	id    uuid.UUID

	tracks map[uint16]*Track
}

// Open initialises a Store over fs, enumerating any existing
// "<id>.track" files in opts.Directory. If none are found, track id 1
// is created.
func Open(fs absfs.FileSystem, opts Options) (*Store, error) {
	if fs == nil {
		return nil, &ValidationError{Field: "fs", Message: "filesystem cannot be nil"}
	}
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	codec, err := NewChunkCodec(opts.ChunkSize)
	if err != nil {
		return nil, err
	}

	s := &Store{
		fs:     fs,
		opts:   opts,
		codec:  codec,
		id:     uuid.New(),
		tracks: make(map[uint16]*Track),
	}

	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

// ID returns the Store's correlation id, stable for the lifetime of
// this instance, useful for telling independent Store instances apart
// in logs.
func (s *Store) ID() uuid.UUID {
	return s.id
}

func (s *Store) init() error {
	dir, err := s.fs.Open(s.opts.Directory)
	if err != nil {
		return NewIOError("open directory", 0, err)
	}
	defer dir.Close()

	infos, err := dir.Readdir(-1)
	if err != nil {
		return NewIOError("readdir", 0, err)
	}

	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		name := info.Name()
		if !strings.HasSuffix(name, ".track") {
			continue
		}
		idStr := strings.TrimSuffix(name, ".track")
		id, err := strconv.ParseUint(idStr, 10, 16)
		if err != nil {
			continue
		}
		if err := s.createTrack(uint16(id)); err != nil {
			return err
		}
	}

	if len(s.tracks) == 0 {
		if err := s.createTrack(1); err != nil {
			return err
		}
	}

	return nil
}

// createTrack opens (creating if necessary) "<id>.track" under
// opts.Directory and adds it to the track map.
func (s *Store) createTrack(id uint16) error {
	if _, exists := s.tracks[id]; exists {
		return nil
	}

	trackPath := path.Join(s.opts.Directory, fmt.Sprintf("%d.track", id))
	file, err := s.fs.OpenFile(trackPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return NewIOError("open", id, err)
	}

	track := newTrack(id, file, s.codec)
	if err := track.Init(); err != nil {
		file.Close()
		return err
	}

	s.tracks[id] = track
	return nil
}

// currentWriteTrack is the highest track id currently open, the track
// a fresh stream write starts allocating from.
func (s *Store) currentWriteTrack() uint16 {
	var max uint16
	for id := range s.tracks {
		if id > max {
			max = id
		}
	}
	return max
}

// Read streams the blob identified by h to sink, in order, flushing
// sink (if it implements flusher) once the chain is exhausted.
func (s *Store) Read(sink io.Writer, h Handle) error {
	if err := ValidateTrackID(h.Track, "read"); err != nil {
		return err
	}

	reader := newStreamReader(s.tracks, h.Track, h.Offset)
	for {
		payload, hasMore, err := reader.read()
		if err != nil {
			return err
		}
		if _, err := sink.Write(payload); err != nil {
			return err
		}
		if !hasMore {
			break
		}
	}

	if f, ok := sink.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// Write reads source to exhaustion, splitting it into chunks and
// threading them into a new chain, rolling over to a new track
// whenever the current one would exceed its configured capacity. It
// returns the chain's head handle.
func (s *Store) Write(source io.Reader) (Handle, error) {
	writer := newStreamWriter(s.tracks, s.currentWriteTrack(), s.opts.TrackSize)
	buf := make([]byte, s.codec.MaxPayload())

	for {
		n, readErr := source.Read(buf)
		if readErr != nil && readErr != io.EOF {
			return Handle{}, NewIOError("read source", 0, readErr)
		}

		if n > 0 {
			ev, err := s.driveWriter(writer, buf[:n])
			if err != nil {
				return Handle{}, err
			}
			if ev.Kind == eventFirstIndex {
				return Handle{Track: ev.Track, Offset: ev.Offset}, nil
			}
		}

		if readErr == io.EOF {
			ev, err := s.driveWriter(writer, nil)
			if err != nil {
				return Handle{}, err
			}
			return Handle{Track: ev.Track, Offset: ev.Offset}, nil
		}
	}
}

// driveWriter feeds payload to writer, creating tracks on demand until
// the writer reports something other than eventCreateTrack.
func (s *Store) driveWriter(writer *streamWriter, payload []byte) (*WriterEvent, error) {
	for {
		ev, err := writer.write(payload)
		if err != nil {
			return nil, err
		}
		if ev.Kind != eventCreateTrack {
			return ev, nil
		}
		if err := s.createTrack(ev.Track); err != nil {
			return nil, err
		}
	}
}

// Remove deletes the blob identified by h, following its chain across
// tracks as each track's Remove reports a cross-link.
func (s *Store) Remove(h Handle) error {
	track, offset := h.Track, h.Offset

	for {
		t, ok := s.tracks[track]
		if !ok {
			return NewInvariantError(track, "remove: unknown track")
		}

		next, err := t.Remove(offset)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}

		track, offset = next.Track, next.Offset
	}
}

// Close persists every track's free-list header and closes its file.
// It must be called before the Store is discarded. Without it, each
// track's on-disk header keeps the free_head/free_tail last written by
// Track.Remove: slots taken from the free-list by later writes are
// still listed as free on disk and are handed out again after a
// reopen.
func (s *Store) Close() error {
	var firstErr error
	for _, t := range s.tracks {
		if err := t.WriteEnd(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := t.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
