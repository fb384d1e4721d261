// Package trackstore is a content-addressed blob store that persists
// arbitrarily-sized byte streams across a bounded set of fixed-size
// backing files ("tracks"). Each blob is stored as a singly-linked list
// of fixed-size "chunks" threaded through one or more tracks. Writes
// return an opaque Handle (track id + chunk offset) that the caller
// persists externally; reads and deletes consume that handle.
//
// # Overview
//
// trackstore implements allocate-on-reuse storage with O(1) amortised
// allocation and deletion: deleting a blob splices its chunks onto a
// per-track free-list, and subsequent writes reuse those slots before
// extending any track file. THE CORE covers the on-disk layout, the
// chunk codec, the per-track free-list allocator, and the cross-track
// streaming reader/writer/remover. Directory enumeration and
// positional file I/O are provided by an absfs.FileSystem the caller
// supplies; a key→handle index, configuration loading, concurrency
// above a single Store, compaction, checksums, and encryption are all
// left to the caller.
//
// # Basic usage
//
//	fs, err := trackstore.NewOSFileSystem("/var/lib/blobs")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store, err := trackstore.Open(fs, trackstore.Options{
//	    Directory: "/",
//	    ChunkSize: 4096,
//	    TrackSize: 64 * 1024 * 1024,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	handle, err := store.Write(strings.NewReader("hello, world"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	var buf bytes.Buffer
//	if err := store.Read(&buf, handle); err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := store.Remove(handle); err != nil {
//	    log.Fatal(err)
//	}
//
// # On-disk format
//
// Each track file opens with a 16-byte header (free_head, free_tail,
// both big-endian uint64) followed by an array of fixed CHUNK_SIZE
// byte records. Each record is:
//
//	bytes 0..8    next_offset (uint64, 0 = absent)
//	bytes 8..10   payload_size (uint16, 0 sentinel = exactly MaxPayload)
//	bytes 10..12  next_track (uint16, 0 = absent/same track)
//	byte  12      valid flag (1 = live, 0 = free)
//	bytes 13..    payload, zero-padded to CHUNK_SIZE
//
// # Concurrency
//
// A Store is not safe for concurrent use. All operations are
// synchronous with respect to the caller; the only suspension points
// are the underlying absfs.File operations. Callers requiring
// concurrency must serialise externally, or use one Store per
// goroutine over disjoint directories.
//
// # Non-goals
//
// Not provided: a key→handle index, configuration loading,
// concurrency above a single Store instance, compaction/
// defragmentation, checksums, or encryption. These are the caller's
// responsibility to layer on top.
package trackstore
