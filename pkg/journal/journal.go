// Package journal keeps an append-only record of analysis runs so a report
// can be rebuilt or browsed after the process that produced it has exited.
//
// Each entry is framed as
//
//	[Seq:8][Kind:1][Len:4][Data:Len][CRC32:4][Timestamp:8]
//
// with Data snappy-compressed and the checksum taken over the compressed
// bytes. All integers are big-endian.
package journal

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dd0wney/cluso-optipath/pkg/logging"
)

// Open opens or creates the journal in dir. A partially written final entry,
// left by a crash mid-append, is cut off; any other damage is an error.
func Open(dir string, logger logging.Logger) (*Journal, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	path := filepath.Join(dir, FileName)
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	j := &Journal{
		file:   file,
		dir:    dir,
		logger: logger.With(logging.Component("journal"), logging.Path(path)),
	}
	if err := j.recover(); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to recover journal: %w", err)
	}
	j.writer = bufio.NewWriter(file)
	return j, nil
}

// recover finds the last good sequence number and trims a torn tail.
func (j *Journal) recover() error {
	good, last, err := scan(j.file, nil)
	if err != nil && !errors.Is(err, ErrTruncated) {
		return err
	}
	if err != nil {
		j.logger.Warn("discarding torn journal tail",
			logging.Int64("offset", good),
			logging.Uint64("last_seq", last),
			logging.Error(err),
		)
		if err := j.file.Truncate(good); err != nil {
			return fmt.Errorf("failed to truncate torn tail: %w", err)
		}
	}
	if _, err := j.file.Seek(good, 0); err != nil {
		return fmt.Errorf("failed to seek to journal end: %w", err)
	}
	j.seq = last
	return nil
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return filepath.Join(j.dir, FileName)
}

// Flush flushes buffered entries and syncs the file.
func (j *Journal) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.flush()
}

func (j *Journal) flush() error {
	if err := j.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush journal: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync journal: %w", err)
	}
	return nil
}

// Close flushes and closes the journal.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true

	if err := j.flush(); err != nil {
		j.file.Close()
		return err
	}
	return j.file.Close()
}

// Stats returns write statistics for this session.
func (j *Journal) Stats() Stats {
	j.mu.Lock()
	defer j.mu.Unlock()

	ratio := 0.0
	if j.bytesUncompressed > 0 {
		ratio = 1.0 - (float64(j.bytesCompressed) / float64(j.bytesUncompressed))
	}
	return Stats{
		Entries:           j.totalWrites,
		LastSeq:           j.seq,
		BytesUncompressed: j.bytesUncompressed,
		BytesCompressed:   j.bytesCompressed,
		CompressionRatio:  ratio,
	}
}
