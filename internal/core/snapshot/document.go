package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// RawID is an entity identity as written in a document. It only has meaning
// relative to the document that carries it. The largest value equals
// models.Placeholder and cannot own a row.
type RawID uint64

// Row is one component of one entity. A nil Value is written as null.
type Row struct {
	Raw   RawID
	Value json.RawMessage
}

// Document is the type-keyed encoding of a store's marked entities:
//
//	{"Position": [[0, {"x": 1}], [3, {"x": 2}]], "Tag": [[0, null]]}
//
// Column order is preserved in both directions. A Document is not modified
// once built.
type Document struct {
	types   []string
	columns map[string][]Row
}

func newDocument(capacity int) *Document {
	return &Document{
		types:   make([]string, 0, capacity),
		columns: make(map[string][]Row, capacity),
	}
}

func (d *Document) addColumn(typeName string, rows []Row) error {
	if _, exists := d.columns[typeName]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateColumn, typeName)
	}
	if rows == nil {
		rows = []Row{}
	}
	d.types = append(d.types, typeName)
	d.columns[typeName] = rows
	return nil
}

// Types returns the column names in document order.
func (d *Document) Types() []string {
	return append([]string(nil), d.types...)
}

// Column returns the rows stored for typeName. The slice must not be modified.
func (d *Document) Column(typeName string) ([]Row, bool) {
	rows, ok := d.columns[typeName]
	return rows, ok
}

// Len is the number of rows over all columns.
func (d *Document) Len() int {
	n := 0
	for _, rows := range d.columns {
		n += len(rows)
	}
	return n
}

func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, typeName := range d.types {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(typeName)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(":[")
		for j, row := range d.columns[typeName] {
			if j > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('[')
			buf.WriteString(strconv.FormatUint(uint64(row.Raw), 10))
			buf.WriteByte(',')
			if row.Value == nil {
				buf.WriteString("null")
			} else if err = json.Compact(&buf, row.Value); err != nil {
				return nil, fmt.Errorf("%s row %d: %w", typeName, j, err)
			}
			buf.WriteByte(']')
		}
		buf.WriteByte(']')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Bytes serializes the document, pretty-printed when indent is not empty.
func (d *Document) Bytes(indent string) ([]byte, error) {
	data, err := d.MarshalJSON()
	if err != nil || indent == "" {
		return data, err
	}
	var out bytes.Buffer
	if err = json.Indent(&out, data, "", indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Fingerprint is the xxhash of the compact encoding. Equal documents have
// equal fingerprints.
func (d *Document) Fingerprint() (uint64, error) {
	data, err := d.MarshalJSON()
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(data), nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDocument(data)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

// ParseDocument reads the wire form of a document. Failures are *DecodeError.
func ParseDocument(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, envelopeError(err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, envelopeError(fmt.Errorf("expected object, got %v", tok))
	}

	doc := newDocument(8)
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return nil, envelopeError(err)
		}
		typeName, _ := tok.(string)

		var rawRows []json.RawMessage
		if err = dec.Decode(&rawRows); err != nil {
			return nil, &DecodeError{Type: typeName, Row: -1, Err: fmt.Errorf("%w: %v", ErrMalformedDocument, err)}
		}
		if rawRows == nil {
			return nil, &DecodeError{Type: typeName, Row: -1, Err: fmt.Errorf("%w: column is null", ErrMalformedDocument)}
		}

		rows := make([]Row, len(rawRows))
		seen := make(map[RawID]struct{}, len(rawRows))
		for i, rawRow := range rawRows {
			row, rowErr := parseRow(rawRow)
			if rowErr != nil {
				return nil, &DecodeError{Type: typeName, Row: i, Raw: row.Raw, Err: rowErr}
			}
			if _, dup := seen[row.Raw]; dup {
				return nil, &DecodeError{Type: typeName, Row: i, Raw: row.Raw, Err: ErrDuplicateRow}
			}
			seen[row.Raw] = struct{}{}
			rows[i] = row
		}
		if err = doc.addColumn(typeName, rows); err != nil {
			return nil, &DecodeError{Type: typeName, Row: -1, Err: err}
		}
	}

	if _, err = dec.Token(); err != nil {
		return nil, envelopeError(err)
	}
	if _, err = dec.Token(); !errors.Is(err, io.EOF) {
		return nil, envelopeError(errors.New("trailing data after document"))
	}
	return doc, nil
}

func parseRow(data json.RawMessage) (Row, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return Row{}, fmt.Errorf("%w: row is not an array: %v", ErrMalformedDocument, err)
	}
	if len(parts) != 2 {
		return Row{}, fmt.Errorf("%w: row has %d elements, want 2", ErrMalformedDocument, len(parts))
	}

	text := strings.TrimSpace(string(parts[0]))
	if strings.HasPrefix(text, "-") {
		return Row{}, fmt.Errorf("%w: %s", ErrNegativeIdentity, text)
	}
	raw, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("%w: identity %s is not an unsigned integer", ErrMalformedDocument, text)
	}

	row := Row{Raw: RawID(raw)}
	if !isNull(parts[1]) {
		row.Value = append(json.RawMessage(nil), parts[1]...)
	}
	return row, nil
}

func envelopeError(err error) error {
	return &DecodeError{Row: -1, Err: fmt.Errorf("%w: %v", ErrMalformedDocument, err)}
}
