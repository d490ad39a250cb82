package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"askpepper/types"
)

// columns are assigned by position, whatever the dataset calls them.
const datasetColumns = 3

// ReadDataset loads the records of a JSON dataset file.
func ReadDataset(path string) ([]types.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	records, err := ParseDataset(data)
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return records, nil
}

// ParseDataset accepts either an array of row objects or an object of columns
// (column -> row index -> value). The first three columns map to title,
// address and text, in that order.
func ParseDataset(data []byte) ([]types.RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch tok {
	case json.Delim('['):
		return parseRows(dec)
	case json.Delim('{'):
		return parseColumns(dec)
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

// parseRows aligns row cells by key. Columns are ordered by first appearance
// across all rows; a key missing from a row reads as "".
func parseRows(dec *json.Decoder) ([]types.RawRecord, error) {
	var (
		columns []string
		seen    = make(map[string]bool)
		rows    []map[string]string
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if tok != json.Delim('{') {
			return nil, fmt.Errorf("row %d: expected object, got %v", len(rows), tok)
		}
		row := make(map[string]string)
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("row %d: bad key %v", len(rows), keyTok)
			}
			var v any
			if err := dec.Decode(&v); err != nil {
				return nil, err
			}
			row[key] = cellString(v)
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
		if _, err := dec.Token(); err != nil { // }
			return nil, err
		}
		rows = append(rows, row)
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	records := make([]types.RawRecord, 0, len(rows))
	for _, row := range rows {
		values := make([]string, len(columns))
		for c, name := range columns {
			values[c] = row[name]
		}
		records = append(records, recordFrom(values))
	}
	return records, nil
}

func parseColumns(dec *json.Decoder) ([]types.RawRecord, error) {
	var columns []map[int]string
	for dec.More() {
		if _, err := dec.Token(); err != nil { // column name
			return nil, err
		}
		var cells map[string]any
		if err := dec.Decode(&cells); err != nil {
			return nil, err
		}
		col := make(map[int]string, len(cells))
		for k, v := range cells {
			idx, err := strconv.Atoi(k)
			if err != nil {
				return nil, fmt.Errorf("column %d: bad row index %q", len(columns), k)
			}
			col[idx] = cellString(v)
		}
		columns = append(columns, col)
	}

	indexes := make(map[int]struct{})
	for _, col := range columns {
		for idx := range col {
			indexes[idx] = struct{}{}
		}
	}
	order := make([]int, 0, len(indexes))
	for idx := range indexes {
		order = append(order, idx)
	}
	sort.Ints(order)

	records := make([]types.RawRecord, 0, len(order))
	for _, idx := range order {
		values := make([]string, len(columns))
		for c, col := range columns {
			values[c] = col[idx]
		}
		records = append(records, recordFrom(values))
	}
	return records, nil
}

func recordFrom(values []string) types.RawRecord {
	var v [datasetColumns]string
	copy(v[:], values)
	return types.RawRecord{Title: v[0], Address: v[1], Text: v[2]}
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

// SnapshotOlderThan reports whether the dataset file was modified after the
// snapshot was written. Missing files never count as stale.
func SnapshotOlderThan(snapshotPath, datasetPath string) bool {
	snap, err := os.Stat(snapshotPath)
	if err != nil {
		return false
	}
	ds, err := os.Stat(datasetPath)
	if err != nil {
		return false
	}
	return ds.ModTime().After(snap.ModTime())
}
