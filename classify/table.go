package classify

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"healthrisk/ml"
)

// Field is one named value of an input record.
type Field struct {
	Name  string
	Value any
}

// Record is an input record with its keys in request order.
type Record []Field

// Only returns the fields named in names, dropping the rest.
func (r Record) Only(names []string) Record {
	out := make(Record, 0, len(names))
	for _, f := range r {
		for _, name := range names {
			if f.Name == name {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// ErrNoInput is returned for an empty, null or field-less body.
var ErrNoInput = invalidInput("No input data provided")

// ParseRecords decodes a JSON object or a JSON array of objects.
func ParseRecords(data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNoInput
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, invalidJSON(err)
	}
	var records []Record
	switch tok {
	case nil:
		if _, err := dec.Token(); err != io.EOF {
			return nil, invalidInput("unexpected data after JSON value")
		}
		return nil, ErrNoInput
	case json.Delim('{'):
		record, err := parseObject(dec)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	case json.Delim('['):
		for i := 0; dec.More(); i++ {
			tok, err := dec.Token()
			if err != nil {
				return nil, invalidJSON(err)
			}
			if tok != json.Delim('{') {
				return nil, invalidInput("record %d is not a JSON object", i)
			}
			record, err := parseObject(dec)
			if err != nil {
				return nil, err
			}
			records = append(records, record)
		}
		if _, err := dec.Token(); err != nil {
			return nil, invalidJSON(err)
		}
	default:
		return nil, invalidInput("expected a JSON object or an array of objects")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, invalidInput("unexpected data after JSON value")
	}
	return records, nil
}

// parseObject reads the fields of an object whose opening brace was consumed.
// A repeated key keeps its first position and takes the last value.
func parseObject(dec *json.Decoder) (Record, error) {
	var record Record
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, invalidJSON(err)
		}
		name := tok.(string)
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, invalidJSON(err)
		}
		replaced := false
		for i := range record {
			if record[i].Name == name {
				record[i].Value = value
				replaced = true
				break
			}
		}
		if !replaced {
			record = append(record, Field{Name: name, Value: value})
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, invalidJSON(err)
	}
	return record, nil
}

func invalidJSON(err error) error {
	return invalidInput("invalid JSON body: %v", err)
}

// Normalize turns records into a numeric table. Columns are the union of
// record keys in first-seen order. Any cell that is absent or not numeric
// fails the whole table, naming every offending column.
func Normalize(records []Record) (*ml.Table, error) {
	if len(records) == 0 {
		return nil, ErrNoInput
	}
	var columns []string
	position := make(map[string]int)
	for _, record := range records {
		for _, f := range record {
			if _, ok := position[f.Name]; !ok {
				position[f.Name] = len(columns)
				columns = append(columns, f.Name)
			}
		}
	}
	if len(columns) == 0 {
		return nil, ErrNoInput
	}

	invalid := make([]bool, len(columns))
	rows := make([][]float64, len(records))
	for i, record := range records {
		row := make([]float64, len(columns))
		present := make([]bool, len(columns))
		for _, f := range record {
			j := position[f.Name]
			present[j] = true
			v, ok := toNumber(f.Value)
			if !ok {
				invalid[j] = true
				continue
			}
			row[j] = v
		}
		for j, ok := range present {
			if !ok {
				invalid[j] = true
			}
		}
		rows[i] = row
	}

	var bad []string
	for j, column := range columns {
		if invalid[j] {
			bad = append(bad, column)
		}
	}
	if len(bad) > 0 {
		return nil, invalidFields("Invalid or missing numeric values in fields", bad)
	}
	return &ml.Table{Columns: columns, Rows: rows}, nil
}

// Require fails when t lacks any of the named columns, naming all of them.
func Require(t *ml.Table, names []string) error {
	if missing := t.Missing(names); len(missing) > 0 {
		return invalidFields("Missing required fields", missing)
	}
	return nil
}

// toNumber coerces a decoded JSON value. Booleans count as 1 and 0.
func toNumber(value any) (float64, bool) {
	var v float64
	switch x := value.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return 0, false
		}
		v = f
	case float64:
		v = x
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		v = f
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
