package journal

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dd0wney/cluso-optipath/pkg/logging"
)

// FileName is the journal file inside the journal directory.
const FileName = "results.journal"

// MaxEntryBytes bounds the compressed payload of a single entry.
const MaxEntryBytes = 64 << 20

var (
	// ErrCorrupt indicates an entry whose checksum or payload does not verify.
	ErrCorrupt = errors.New("journal: corrupt entry")

	// ErrTruncated indicates a partially written entry at the end of the file.
	ErrTruncated = errors.New("journal: truncated entry")

	// ErrNoRuns is returned when the journal holds no run.
	ErrNoRuns = errors.New("journal: no runs recorded")

	// ErrClosed is returned by writes after Close.
	ErrClosed = errors.New("journal: closed")
)

// Kind identifies what an entry's payload holds
type Kind uint8

const (
	KindRunStarted Kind = iota + 1
	KindResult
	KindRunFinished
)

func (k Kind) String() string {
	switch k {
	case KindRunStarted:
		return "run_started"
	case KindResult:
		return "result"
	case KindRunFinished:
		return "run_finished"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Entry represents a single journal entry. Data is the uncompressed payload.
type Entry struct {
	Seq       uint64
	Kind      Kind
	Data      []byte
	Checksum  uint32 // CRC32 of the compressed payload
	Timestamp int64  // unix milliseconds
}

// Journal is an append-only, snappy-compressed log of analysis runs
type Journal struct {
	file   *os.File
	writer *bufio.Writer
	seq    uint64
	dir    string
	logger logging.Logger
	closed bool
	mu     sync.Mutex

	// Statistics
	totalWrites       uint64
	bytesUncompressed uint64
	bytesCompressed   uint64
}

// Stats holds write statistics for the current session
type Stats struct {
	Entries           uint64
	LastSeq           uint64
	BytesUncompressed uint64
	BytesCompressed   uint64
	CompressionRatio  float64 // e.g., 0.75 = 75% compression
}
