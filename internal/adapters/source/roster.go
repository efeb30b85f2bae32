package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/podium/internal/domain/model"
)

// RosterFile reads competitor metadata from a CSV file with a
// `competitor,display_name,active` header. The metadata only shapes
// output; fitting ignores it entirely.
type RosterFile struct {
	path string
}

// NewRosterFile creates a CSV-backed roster source.
func NewRosterFile(path string) *RosterFile {
	return &RosterFile{path: path}
}

// LoadRoster reads the whole roster file.
func (s *RosterFile) LoadRoster(ctx context.Context) (model.Roster, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	roster := make(model.Roster)
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
			return nil, fmt.Errorf("%w: %w", ErrBadRow, err)
		}
		line++
		if len(record) != 3 {
			return nil, fmt.Errorf("%w: line %d: want 3 columns, got %d", ErrBadRow, line, len(record))
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "competitor") {
			continue
		}
		id := model.Competitor(strings.TrimSpace(record[0]))
		roster[id] = model.Profile{
			DisplayName: strings.TrimSpace(record[1]),
			Active:      parseActive(record[2]),
		}
	}
	return roster, nil
}

func parseActive(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "active":
		return true
	default:
		return false
	}
}
