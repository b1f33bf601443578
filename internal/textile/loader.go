package textile

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Load reads a scorecard file and builds the table. The distribution format
// is chosen by extension: .csv for the flat file, .db/.sqlite for the SQLite
// packaging of the same rows.
func Load(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".db", ".sqlite", ".sqlite3":
		return LoadSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported scorecard format: %s", path)
	}
}

// csvColumns is the required header, in order: name, category, the eight axis
// columns, then a pipe-separated certifications column.
var csvColumns = append(append([]string{"name", "category"}, axisHeaders()...), "certifications")

func axisHeaders() []string {
	h := make([]string, len(Axes))
	for i, a := range Axes {
		h[i] = string(a)
	}
	return h
}

// LoadCSV parses the flat-file scorecard distribution.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scorecard: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read scorecard header: %w", err)
	}
	if len(header) != len(csvColumns) {
		return nil, fmt.Errorf("scorecard header has %d columns, want %d", len(header), len(csvColumns))
	}
	for i, want := range csvColumns {
		if strings.TrimSpace(strings.ToLower(header[i])) != want {
			return nil, fmt.Errorf("scorecard column %d is %q, want %q", i, header[i], want)
		}
	}

	var entries []MaterialEntry
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scorecard line %d: %w", line, err)
		}
		e, err := entryFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("scorecard line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("scorecard %s has no rows", path)
	}
	return NewTable(entries), nil
}

func entryFromRow(row []string) (MaterialEntry, error) {
	if len(row) != len(csvColumns) {
		return MaterialEntry{}, fmt.Errorf("row has %d columns, want %d", len(row), len(csvColumns))
	}
	e := MaterialEntry{
		Name:     strings.TrimSpace(row[0]),
		Category: strings.TrimSpace(row[1]),
		Impact:   make(ImpactVector, len(Axes)),
	}
	if e.Name == "" {
		return MaterialEntry{}, fmt.Errorf("empty material name")
	}
	for i, a := range Axes {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[2+i]), 64)
		if err != nil {
			return MaterialEntry{}, fmt.Errorf("axis %s: %w", a, err)
		}
		if v < 0 || v > 100 {
			return MaterialEntry{}, fmt.Errorf("axis %s score %.1f out of range [0,100]", a, v)
		}
		e.Impact[a] = v
	}
	if certs := strings.TrimSpace(row[len(row)-1]); certs != "" {
		for _, c := range strings.Split(certs, "|") {
			if c = strings.TrimSpace(c); c != "" {
				e.Certifications = append(e.Certifications, c)
			}
		}
	}
	return e, nil
}

// LoadSQLite opens the SQLite scorecard distribution read-only and loads the
// materials and certifications tables.
func LoadSQLite(path string) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("scorecard database: %w", err)
	}

	// No journal-mode pragma: switching journal modes is a write and the
	// scorecard connection is read-only.
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open scorecard database: %w", err)
	}
	defer db.Close()

	query := fmt.Sprintf(
		"SELECT name, category, %s FROM materials ORDER BY name",
		strings.Join(axisHeaders(), ", "),
	)
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	var entries []MaterialEntry
	for rows.Next() {
		e := MaterialEntry{Impact: make(ImpactVector, len(Axes))}
		scan := []any{&e.Name, &e.Category}
		vals := make([]float64, len(Axes))
		for i := range vals {
			scan = append(scan, &vals[i])
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("scan material row: %w", err)
		}
		for i, a := range Axes {
			if vals[i] < 0 || vals[i] > 100 {
				return nil, fmt.Errorf("material %s axis %s score %.1f out of range [0,100]", e.Name, a, vals[i])
			}
			e.Impact[a] = vals[i]
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("scorecard database %s has no materials", path)
	}

	byName := make(map[string]*MaterialEntry, len(entries))
	for i := range entries {
		byName[entries[i].Name] = &entries[i]
	}

	certRows, err := db.Query("SELECT material, standard FROM certifications ORDER BY material, rank")
	if err != nil {
		return nil, fmt.Errorf("query certifications: %w", err)
	}
	defer certRows.Close()
	for certRows.Next() {
		var material, standard string
		if err := certRows.Scan(&material, &standard); err != nil {
			return nil, fmt.Errorf("scan certification row: %w", err)
		}
		if e, ok := byName[material]; ok {
			e.Certifications = append(e.Certifications, standard)
		}
	}
	if err := certRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate certifications: %w", err)
	}

	return NewTable(entries), nil
}
