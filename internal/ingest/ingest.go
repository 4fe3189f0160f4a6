// Package ingest reads uploaded CSV/XLSX files into raw header-keyed
// records, ready for template projection into canonical rows.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/utasoy/market-reconciler/internal/valueparse"
)

// ReadFile parses filename's contents (CSV or XLSX) into raw rows keyed
// by cleaned header names. CSV files are tried as UTF-8 first, falling
// back to Latin-1 the way the original pandas loader did.
func ReadFile(filename string, data []byte) ([]map[string]string, error) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		records, err := readCSV(data)
		if err != nil {
			return nil, fmt.Errorf("ingest: %q okunamadı: %w", filename, err)
		}
		return records, nil
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xls"):
		records, err := readExcel(data)
		if err != nil {
			return nil, fmt.Errorf("ingest: %q okunamadı: %w", filename, err)
		}
		return records, nil
	default:
		return nil, fmt.Errorf("ingest: %q desteklenmeyen dosya türü", filename)
	}
}

func readCSV(data []byte) ([]map[string]string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}) // utf-8 BOM

	rows, err := parseCSVBytes(data)
	if err != nil || len(rows) == 0 || !utf8.Valid(data) {
		decoded, decErr := decodeLatin1(data)
		if decErr != nil {
			return nil, err
		}
		rows, err = parseCSVBytes(decoded)
		if err != nil {
			return nil, err
		}
	}
	return rowsToRecords(rows), nil
}

func parseCSVBytes(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func decodeLatin1(data []byte) ([]byte, error) {
	reader := transform.NewReader(bytes.NewReader(data), charmap.ISO8859_1.NewDecoder())
	return io.ReadAll(reader)
}

func rowsToRecords(rows [][]string) []map[string]string {
	if len(rows) == 0 {
		return nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = valueparse.CleanColumnName(h)
	}

	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		records = append(records, rec)
	}
	return records
}

func readExcel(data []byte) ([]map[string]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("sayfa bulunamadı")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return rowsToRecords(rows), nil
}
