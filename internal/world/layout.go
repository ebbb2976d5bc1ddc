package world

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sanitize forces a layout to exactly width×height, truncating long rows and
// padding short or missing rows with floor.
func Sanitize(rows []string, width, height int) []string {
	out := make([]string, 0, height)
	for i := 0; i < height; i++ {
		row := ""
		if i < len(rows) {
			row = rows[i]
		}
		switch {
		case len(row) > width:
			row = row[:width]
		case len(row) < width:
			row += strings.Repeat(string(CodeFloor), width-len(row))
		}
		out = append(out, row)
	}
	return out
}

// UnknownCodes returns the distinct codes in rows that the catalog does not define.
func UnknownCodes(rows []string, catalog Catalog) []byte {
	seen := make(map[byte]bool)
	var out []byte
	for _, row := range rows {
		for i := 0; i < len(row); i++ {
			code := row[i]
			if _, ok := catalog[code]; ok || seen[code] {
				continue
			}
			seen[code] = true
			out = append(out, code)
		}
	}
	return out
}

// ReadLayout reads a layout, one row per line. Blank lines and lines starting
// with ';' are skipped; trailing whitespace is trimmed.
func ReadLayout(r io.Reader) ([]string, error) {
	var rows []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		rows = append(rows, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return rows, nil
}

// LoadLayout reads a layout file from disk.
func LoadLayout(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open layout: %w", err)
	}
	defer f.Close()
	return ReadLayout(f)
}

// FormatLayout joins rows with newlines.
func FormatLayout(rows []string) string {
	return strings.Join(rows, "\n")
}
