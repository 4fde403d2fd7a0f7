// Package workbook reads the uploaded workbook into raw, string-typed sheets.
// A workbook is either an .xlsx file or a directory holding one <sheet>.csv
// per sheet.
package workbook

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"noc-stats/domain/network"
)

// Sheet is one raw tabular buffer. Header cells are always text.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
	index  map[string]int
}

// NewSheet builds a sheet from a header row and data rows.
func NewSheet(name string, header []string, rows [][]string) Sheet {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return Sheet{Name: name, Header: header, Rows: rows, index: idx}
}

// fromRecords splits the first record off as the header.
func fromRecords(name string, records [][]string) Sheet {
	if len(records) == 0 {
		return NewSheet(name, nil, nil)
	}
	return NewSheet(name, records[0], records[1:])
}

// Index returns the position of column.
func (s Sheet) Index(column string) (int, bool) {
	i, ok := s.index[column]
	return i, ok
}

// Has reports whether the header contains column.
func (s Sheet) Has(column string) bool {
	_, ok := s.index[column]
	return ok
}

// Cell returns the cell at column for row, and false when the column is
// unknown or the row ends before it.
func (s Sheet) Cell(row []string, column string) (string, bool) {
	i, ok := s.index[column]
	if !ok || i >= len(row) {
		return "", false
	}
	return row[i], true
}

// Get is Cell without the presence flag.
func (s Sheet) Get(row []string, column string) string {
	v, _ := s.Cell(row, column)
	return v
}

// RequireColumns fails with a SchemaError naming the first absent column.
func (s Sheet) RequireColumns(columns ...string) error {
	for _, c := range columns {
		if !s.Has(c) {
			return &network.SchemaError{Sheet: s.Name, Column: c}
		}
	}
	return nil
}

// Book is a loaded workbook.
type Book struct {
	Source string
	// Digest is the SHA-256 of the workbook bytes, empty for CSV directories.
	Digest string
	sheets map[string]Sheet
	order  []string
}

// NewBook assembles a workbook from already-read sheets.
func NewBook(source string, sheets ...Sheet) *Book {
	b := &Book{Source: source, sheets: make(map[string]Sheet, len(sheets))}
	for _, s := range sheets {
		b.add(s)
	}
	return b
}

func (b *Book) add(s Sheet) {
	if _, ok := b.sheets[s.Name]; !ok {
		b.order = append(b.order, s.Name)
	}
	b.sheets[s.Name] = s
}

// SheetNames lists sheets in workbook order.
func (b *Book) SheetNames() []string { return append([]string(nil), b.order...) }

// Sheet returns the named sheet.
func (b *Book) Sheet(name string) (Sheet, bool) {
	s, ok := b.sheets[name]
	return s, ok
}

// Require fails with a SchemaError naming the first missing sheet.
func (b *Book) Require(names ...string) error {
	for _, n := range names {
		if _, ok := b.sheets[n]; !ok {
			return &network.SchemaError{Sheet: n}
		}
	}
	return nil
}

// Open loads a workbook from an .xlsx file or a directory of CSV sheets.
func Open(path string) (*Book, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return OpenDir(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, filepath.Base(path))
}

// Read loads an uploaded workbook stream. Only .xlsx content is accepted.
func Read(r io.Reader, name string) (*Book, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".xlsx" && ext != "" {
		return nil, fmt.Errorf("unsupported workbook type %q", ext)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook %s: %w", name, err)
	}
	b, err := readXLSX(data, name)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	b.Digest = hex.EncodeToString(sum[:])
	return b, nil
}
