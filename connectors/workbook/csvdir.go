package workbook

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// OpenDir reads every *.csv file in dir as a sheet named after the file.
func OpenDir(dir string) (*Book, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	b := NewBook(dir)
	for _, path := range matches {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		s, err := readCSVSheet(path, name)
		if err != nil {
			return nil, err
		}
		b.add(s)
	}
	return b, nil
}

func readCSVSheet(path, name string) (Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return Sheet{}, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return Sheet{}, fmt.Errorf("read sheet %s: %w", path, err)
	}
	return fromRecords(name, records), nil
}
