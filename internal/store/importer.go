package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/pitch.replay/internal/tracking"
)

// RequiredColumns are the CSV columns ImportCSV needs. Any further numeric
// column is stored as an auxiliary field of the sample.
var RequiredColumns = []string{
	"match_id", "period", "frame_id", "timestamp", "entity_id", "team_id", "x", "y",
}

// importBatch bounds the rows held in memory before a flush.
const importBatch = 5000

// ImportCSV reads a headered telemetry CSV and stores every row. It returns
// the number of rows imported.
func (s *Store) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	cols, extras, err := mapColumns(header)
	if err != nil {
		return 0, err
	}

	pending := make(map[string][]tracking.Sample)
	buffered, total := 0, 0
	flush := func() error {
		for matchID, rows := range pending {
			if err := s.InsertSamples(ctx, matchID, rows); err != nil {
				return err
			}
		}
		total += buffered
		buffered = 0
		clear(pending)
		return nil
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, fmt.Errorf("line %d: %w", line, err)
		}
		matchID, smp, err := parseRow(rec, cols, extras)
		if err != nil {
			return total, fmt.Errorf("line %d: %w", line, err)
		}
		pending[matchID] = append(pending[matchID], smp)
		buffered++

		if buffered >= importBatch {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

func mapColumns(header []string) (map[string]int, map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, req := range RequiredColumns {
		if _, ok := cols[req]; !ok {
			return nil, nil, fmt.Errorf("missing required column %q", req)
		}
	}

	extras := make(map[string]int)
	for name, i := range cols {
		if !isRequired(name) {
			extras[name] = i
		}
	}
	return cols, extras, nil
}

func isRequired(name string) bool {
	for _, req := range RequiredColumns {
		if name == req {
			return true
		}
	}
	return false
}

func parseRow(rec []string, cols, extras map[string]int) (string, tracking.Sample, error) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var (
		smp tracking.Sample
		err error
	)
	matchID := field("match_id")
	if matchID == "" {
		return "", smp, errors.New("empty match_id")
	}
	if smp.Period, err = strconv.Atoi(field("period")); err != nil {
		return "", smp, fmt.Errorf("period: %w", err)
	}
	if smp.FrameID, err = strconv.ParseInt(field("frame_id"), 10, 64); err != nil {
		return "", smp, fmt.Errorf("frame_id: %w", err)
	}
	if smp.Timestamp, err = strconv.ParseFloat(field("timestamp"), 64); err != nil {
		return "", smp, fmt.Errorf("timestamp: %w", err)
	}
	if smp.Position.X, err = strconv.ParseFloat(field("x"), 64); err != nil {
		return "", smp, fmt.Errorf("x: %w", err)
	}
	if smp.Position.Y, err = strconv.ParseFloat(field("y"), 64); err != nil {
		return "", smp, fmt.Errorf("y: %w", err)
	}
	smp.EntityID = field("entity_id")
	if smp.EntityID == "" {
		return "", smp, tracking.ErrEmptyEntityID
	}
	if !smp.IsBall() {
		smp.Group = field("team_id")
	}

	for name, i := range extras {
		if i >= len(rec) {
			continue
		}
		raw := strings.TrimSpace(rec[i])
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if smp.Extra == nil {
			smp.Extra = make(map[string]float64)
		}
		smp.Extra[name] = v
	}
	return matchID, smp, nil
}
