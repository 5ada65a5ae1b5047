// Package cards loads the card database export and turns each card into a
// self-contained, search-friendly text record for the vector index.
package cards

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var (
	ErrMissingColumns = errors.New("missing required columns")
	ErrEmptyFile      = errors.New("card file has no header")
)

var requiredColumns = []string{"name", "type", "desc"}

// LoadFile opens path and parses it with LoadCSV.
func LoadFile(path string) ([]Card, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open card file: %w", err)
	}
	defer f.Close()

	cards, err := LoadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return cards, nil
}

// LoadCSV parses a card CSV with a header row. The name, type and desc columns
// are required; atk, def, level, rank, linkval, race, attribute and archetype
// are optional. Other columns are ignored.
func LoadCSV(r io.Reader) ([]Card, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return cleanText(row[i])
	}

	var cards []Card
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}

		cards = append(cards, Card{
			Name:      field(row, "name"),
			Type:      field(row, "type"),
			Desc:      field(row, "desc"),
			ATK:       parseStat(field(row, "atk")),
			DEF:       parseStat(field(row, "def")),
			Level:     parseStat(field(row, "level")),
			Rank:      parseStat(field(row, "rank")),
			LinkVal:   parseStat(field(row, "linkval")),
			Race:      field(row, "race"),
			Attribute: field(row, "attribute"),
			Archetype: field(row, "archetype"),
		})
	}

	return cards, nil
}

// cleanText trims a cell and maps the literal "None" to empty.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	if s == "None" {
		return ""
	}
	return s
}

// parseStat accepts integers and floats ("2500.0"); anything else is 0.
func parseStat(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}
