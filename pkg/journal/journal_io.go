package journal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"time"

	"github.com/golang/snappy"
)

// entryOverhead is the framing around the payload.
const entryOverhead = 8 + 1 + 4 + 4 + 8

// Append writes one entry and syncs it to disk.
func (j *Journal) Append(kind Kind, data []byte) (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	seq, err := j.append(kind, data)
	if err != nil {
		return 0, err
	}
	if err := j.flush(); err != nil {
		return 0, err
	}
	return seq, nil
}

// AppendBatch writes several entries of one kind with a single sync.
func (j *Journal) AppendBatch(kind Kind, payloads [][]byte) (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var seq uint64
	for _, data := range payloads {
		var err error
		if seq, err = j.append(kind, data); err != nil {
			return 0, err
		}
	}
	if err := j.flush(); err != nil {
		return 0, err
	}
	return seq, nil
}

func (j *Journal) append(kind Kind, data []byte) (uint64, error) {
	if j.closed {
		return 0, ErrClosed
	}

	compressed := snappy.Encode(nil, data)
	if len(compressed) > MaxEntryBytes {
		return 0, fmt.Errorf("journal entry of %d bytes exceeds %d", len(compressed), MaxEntryBytes)
	}

	entry := Entry{
		Seq:       j.seq + 1,
		Kind:      kind,
		Data:      compressed,
		Checksum:  crc32.ChecksumIEEE(compressed),
		Timestamp: time.Now().UnixMilli(),
	}
	if err := writeEntry(j.writer, &entry); err != nil {
		return 0, fmt.Errorf("failed to write journal entry: %w", err)
	}

	j.seq = entry.Seq
	j.totalWrites++
	j.bytesUncompressed += uint64(len(data))
	j.bytesCompressed += uint64(len(compressed))
	return entry.Seq, nil
}

func writeEntry(w *bufio.Writer, entry *Entry) error {
	var head [13]byte
	binary.BigEndian.PutUint64(head[0:8], entry.Seq)
	head[8] = byte(entry.Kind)
	binary.BigEndian.PutUint32(head[9:13], uint32(len(entry.Data)))
	if _, err := w.Write(head[:]); err != nil {
		return err
	}
	if _, err := w.Write(entry.Data); err != nil {
		return err
	}

	var tail [12]byte
	binary.BigEndian.PutUint32(tail[0:4], entry.Checksum)
	binary.BigEndian.PutUint64(tail[4:12], uint64(entry.Timestamp))
	_, err := w.Write(tail[:])
	return err
}

// readEntry reads and verifies one entry and reports how many bytes it
// spans. It returns io.EOF only at a clean entry boundary.
func readEntry(r *bufio.Reader, prevSeq uint64) (*Entry, int, error) {
	var head [13]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, io.EOF
		}
		return nil, 0, readErr(err, "after entry %d", prevSeq)
	}

	entry := &Entry{
		Seq:  binary.BigEndian.Uint64(head[0:8]),
		Kind: Kind(head[8]),
	}
	n := binary.BigEndian.Uint32(head[9:13])
	if n > MaxEntryBytes {
		return nil, 0, fmt.Errorf("%w: entry %d claims %d bytes", ErrCorrupt, entry.Seq, n)
	}

	compressed := make([]byte, n)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, 0, readErr(err, "entry %d payload", entry.Seq)
	}
	var tail [12]byte
	if _, err := io.ReadFull(r, tail[:]); err != nil {
		return nil, 0, readErr(err, "entry %d trailer", entry.Seq)
	}
	entry.Checksum = binary.BigEndian.Uint32(tail[0:4])
	entry.Timestamp = int64(binary.BigEndian.Uint64(tail[4:12]))

	if crc32.ChecksumIEEE(compressed) != entry.Checksum {
		return nil, 0, fmt.Errorf("%w: checksum mismatch for entry %d", ErrCorrupt, entry.Seq)
	}
	if entry.Seq != prevSeq+1 {
		return nil, 0, fmt.Errorf("%w: entry %d follows entry %d", ErrCorrupt, entry.Seq, prevSeq)
	}

	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: entry %d: failed to decompress: %v", ErrCorrupt, entry.Seq, err)
	}
	entry.Data = data
	return entry, entryOverhead + int(n), nil
}

// readErr maps a short read to ErrTruncated and passes other I/O errors on.
func readErr(err error, format string, args ...any) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", ErrTruncated, fmt.Sprintf(format, args...))
	}
	return fmt.Errorf("failed to read journal %s: %w", fmt.Sprintf(format, args...), err)
}

// scan reads entries from the start of f, calling fn for each. It returns the
// offset just past the last good entry and that entry's sequence number.
func scan(f *os.File, fn func(*Entry) error) (int64, uint64, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, 0, err
	}
	r := bufio.NewReader(f)

	var good int64
	var seq uint64
	for {
		entry, size, err := readEntry(r, seq)
		if errors.Is(err, io.EOF) {
			return good, seq, nil
		}
		if err != nil {
			return good, seq, err
		}
		good += int64(size)
		seq = entry.Seq
		if fn != nil {
			if err := fn(entry); err != nil {
				return good, seq, err
			}
		}
	}
}
