package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/metrics"
)

// Supported file formats.
const (
	FormatTSV = "tsv" // whitespace-delimited: competitor contest finish
	FormatCSV = "csv" // header row: contest,competitor,finish
)

// FileSource reads contest results from a delimited text file. Rows
// carry one placement each and are grouped by contest id; contests keep
// the order in which they first appear.
type FileSource struct {
	path   string
	format string
}

// FileOption applies a configuration option to the FileSource.
type FileOption func(*FileSource)

// WithFormat selects the file format; defaults to FormatTSV.
func WithFormat(format string) FileOption {
	return func(s *FileSource) {
		if format != "" {
			s.format = format
		}
	}
}

// NewFileSource creates a file-backed result source.
func NewFileSource(path string, opts ...FileOption) *FileSource {
	s := &FileSource{
		path:   path,
		format: FormatTSV,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads and groups the whole file.
func (s *FileSource) Load(ctx context.Context) ([]model.Contest, error) {
	f, err := os.Open(s.path)
	if err != nil {
		metrics.RecordSourceError()
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer f.Close()

	switch s.format {
	case FormatTSV:
		return s.loadTSV(ctx, f)
	case FormatCSV:
		return s.loadCSV(ctx, f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrBadFormat, s.format)
	}
}

func (s *FileSource) loadTSV(ctx context.Context, r io.Reader) ([]model.Contest, error) {
	grouper := newContestGrouper()
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 3 {
			metrics.RecordSourceError()
			return nil, fmt.Errorf("%w: line %d: want 3 columns, got %d", ErrBadRow, line, len(fields))
		}
		finish, err := strconv.Atoi(fields[2])
		if err != nil {
			// Tolerate a single header line.
			if line == 1 {
				continue
			}
			metrics.RecordSourceError()
			return nil, fmt.Errorf("%w: line %d: bad finish %q", ErrBadRow, line, fields[2])
		}
		grouper.add(fields[1], model.Competitor(fields[0]), finish)
	}
	if err := scanner.Err(); err != nil {
		metrics.RecordSourceError()
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	return grouper.finish()
}

func (s *FileSource) loadCSV(ctx context.Context, r io.Reader) ([]model.Contest, error) {
	grouper := newContestGrouper()
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	line := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			metrics.RecordSourceError()
			return nil, fmt.Errorf("%w: %w", ErrBadRow, err)
		}
		line++
		if len(record) != 3 {
			metrics.RecordSourceError()
			return nil, fmt.Errorf("%w: line %d: want 3 columns, got %d", ErrBadRow, line, len(record))
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "contest") {
			continue
		}
		finish, err := strconv.Atoi(strings.TrimSpace(record[2]))
		if err != nil {
			metrics.RecordSourceError()
			return nil, fmt.Errorf("%w: line %d: bad finish %q", ErrBadRow, line, record[2])
		}
		grouper.add(strings.TrimSpace(record[0]), model.Competitor(strings.TrimSpace(record[1])), finish)
	}
	return grouper.finish()
}

// contestGrouper folds placement rows into contests, keeping first-seen
// contest order.
type contestGrouper struct {
	byID  map[string]map[model.Competitor]int
	order []string
	rows  int
}

func newContestGrouper() *contestGrouper {
	return &contestGrouper{byID: make(map[string]map[model.Competitor]int)}
}

func (g *contestGrouper) add(contestID string, c model.Competitor, finish int) {
	placements, ok := g.byID[contestID]
	if !ok {
		placements = make(map[model.Competitor]int)
		g.byID[contestID] = placements
		g.order = append(g.order, contestID)
	}
	placements[c] = finish
	g.rows++
}

func (g *contestGrouper) finish() ([]model.Contest, error) {
	contests := make([]model.Contest, 0, len(g.order))
	for _, id := range g.order {
		contests = append(contests, model.Contest{ID: id, Placements: g.byID[id]})
	}
	metrics.RecordSourceRows(g.rows)
	return contests, nil
}
