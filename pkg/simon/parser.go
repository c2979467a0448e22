package simon

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-optipath/pkg/logging"
	"github.com/dd0wney/cluso-optipath/pkg/pathanalysis"
	"github.com/dd0wney/cluso-optipath/pkg/validation"
)

// MaxLineBytes bounds a single simulator line.
const MaxLineBytes = 1 << 20

var (
	// ErrNoHeader indicates a line that does not start with "<src>-><dst>".
	ErrNoHeader = errors.New("simon: missing <src>-><dst> path identifier")

	// ErrNoHops indicates a line with a path identifier but no "<id> (<distance>)" pairs.
	ErrNoHops = errors.New("simon: no hops on line")

	// ErrBadNumber indicates an id or distance that does not parse.
	ErrBadNumber = errors.New("simon: bad number")
)

// Reasons a line is rejected, used as metric labels.
const (
	ReasonSyntax  = "syntax"
	ReasonInvalid = "invalid"
)

var (
	headerRe    = regexp.MustCompile(`^\s*(\d+)\s*->\s*(\d+)`)
	costRe      = regexp.MustCompile(`\(Cost:\s*([\d.]+)\)`)
	linkCountRe = regexp.MustCompile(`\(LinkCount:\s*(\d+)\)`)
	hopRe       = regexp.MustCompile(`(\d+)\s+\(([\d.]+)\)`)
	trailingRe  = regexp.MustCompile(`(\d+)\s*$`)
)

// LineError describes a rejected input line.
type LineError struct {
	Line   int
	Text   string
	Reason string
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Result is the outcome of parsing one simulator listing.
type Result struct {
	Records []pathanalysis.PathRecord
	Errors  []*LineError
	Lines   int
}

// ErrorsByReason counts rejected lines per reason.
func (r *Result) ErrorsByReason() map[string]int {
	counts := make(map[string]int, 2)
	for _, e := range r.Errors {
		counts[e.Reason]++
	}
	return counts
}

// Parser reads simulator listings.
type Parser struct {
	logger logging.Logger
}

// NewParser creates a parser that reports skipped lines to logger.
func NewParser(logger logging.Logger) *Parser {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Parser{logger: logger.With(logging.Component("simon"))}
}

// Parse reads r with a parser that logs nothing.
func Parse(r io.Reader) (*Result, error) {
	return NewParser(nil).Parse(r)
}

// ParseFile opens path and parses it.
func (p *Parser) ParseFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open simulator output: %w", err)
	}
	defer f.Close()

	res, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// Parse reads every line of r. Records keep the order of their first
// appearance; a path listed twice keeps its last listing.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	res := &Result{}
	seen := make(map[[2]pathanalysis.NodeID]int)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), MaxLineBytes)

	for scanner.Scan() {
		res.Lines++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		rec, err := ParseLine(text)
		reason := ReasonSyntax
		if err == nil {
			reason = ReasonInvalid
			err = validation.ValidatePathRecord(&rec)
		}
		if err != nil {
			lineErr := &LineError{Line: res.Lines, Text: text, Reason: reason, Err: err}
			res.Errors = append(res.Errors, lineErr)
			p.logger.Warn("skipping simulator line",
				logging.Line(res.Lines),
				logging.String("reason", reason),
				logging.Error(err),
			)
			continue
		}

		if rec.LinkCount > 0 && rec.LinkCount != len(rec.Nodes)-1 {
			p.logger.Warn("link count does not match hops",
				logging.Line(res.Lines),
				logging.Int("link_count", rec.LinkCount),
				logging.Int("hops", len(rec.Nodes)),
			)
		}

		if repeated := validation.Revisits(rec); len(repeated) > 0 {
			p.logger.Debug("path revisits nodes",
				logging.Line(res.Lines),
				logging.Any("nodes", repeated),
			)
		}

		key := [2]pathanalysis.NodeID{rec.Source, rec.Destination}
		if idx, dup := seen[key]; dup {
			p.logger.Warn("path listed more than once, keeping the later listing",
				logging.Line(res.Lines),
				logging.PathID(PathID(rec)),
			)
			res.Records[idx] = rec
			continue
		}
		seen[key] = len(res.Records)
		res.Records = append(res.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("failed to read simulator output at line %d: %w", res.Lines+1, err)
	}

	p.logger.Debug("simulator output parsed",
		logging.Count(len(res.Records)),
		logging.Int("rejected", len(res.Errors)),
		logging.Int("lines", res.Lines),
	)
	return res, nil
}

// ParseLine parses a single path line. It does not validate the record.
func ParseLine(line string) (pathanalysis.PathRecord, error) {
	var rec pathanalysis.PathRecord

	header := headerRe.FindStringSubmatchIndex(line)
	if header == nil {
		return rec, ErrNoHeader
	}
	src, err := parseID(line[header[2]:header[3]])
	if err != nil {
		return rec, err
	}
	dst, err := parseID(line[header[4]:header[5]])
	if err != nil {
		return rec, err
	}
	rec.Source, rec.Destination = src, dst

	body := line[header[1]:]
	if m := costRe.FindStringSubmatchIndex(body); m != nil {
		if rec.Cost, err = parseDistance(body[m[2]:m[3]]); err != nil {
			return rec, err
		}
		body = body[m[1]:]
	}

	if m := linkCountRe.FindStringSubmatchIndex(body); m != nil {
		if rec.LinkCount, err = strconv.Atoi(body[m[2]:m[3]]); err != nil {
			return rec, fmt.Errorf("%w: link count %q", ErrBadNumber, body[m[2]:m[3]])
		}
		body = body[:m[0]]
	}

	hops := hopRe.FindAllStringSubmatchIndex(body, -1)
	if len(hops) == 0 {
		return rec, ErrNoHops
	}
	rec.Nodes = make([]pathanalysis.Hop, 0, len(hops)+1)
	for _, m := range hops {
		id, err := parseID(body[m[2]:m[3]])
		if err != nil {
			return rec, err
		}
		d, err := parseDistance(body[m[4]:m[5]])
		if err != nil {
			return rec, err
		}
		rec.Nodes = append(rec.Nodes, pathanalysis.Hop{ID: id, DistanceToNext: d})
	}

	// The destination follows the last pair without a distance of its own.
	tail := body[hops[len(hops)-1][1]:]
	if i := strings.IndexByte(tail, '('); i >= 0 {
		tail = tail[:i]
	}
	if m := trailingRe.FindStringSubmatch(tail); m != nil {
		id, err := parseID(m[1])
		if err != nil {
			return rec, err
		}
		rec.Nodes = append(rec.Nodes, pathanalysis.Hop{ID: id})
	}
	return rec, nil
}

// PathID formats the simulator's "<src>-><dst>" identifier.
func PathID(rec pathanalysis.PathRecord) string {
	return fmt.Sprintf("%d->%d", rec.Source, rec.Destination)
}

func parseID(s string) (pathanalysis.NodeID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: node id %q", ErrBadNumber, s)
	}
	return pathanalysis.NodeID(v), nil
}

func parseDistance(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: distance %q", ErrBadNumber, s)
	}
	return v, nil
}
