package features

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CropPrefix names the indicator columns produced for the crop category.
const CropPrefix = "Crop_"

// Schema is the ordered list of feature columns the model was fit on.
// Position matters: the model only checks column count and order.
type Schema struct {
	Path    string
	Version string
	Columns []string

	index map[string]int
}

// NewSchema builds a Schema from an already known column list.
func NewSchema(columns []string) *Schema {
	cols := make([]string, len(columns))
	copy(cols, columns)
	s := &Schema{Columns: cols, Version: versionOf(cols), index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := s.index[c]; !dup {
			s.index[c] = i
		}
	}
	return s
}

func (s *Schema) Len() int { return len(s.Columns) }

// Index returns the position of a column, or -1.
func (s *Schema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

func (s *Schema) Has(name string) bool { return s.Index(name) >= 0 }

// Categories lists the category values with an indicator column under prefix,
// in schema order.
func (s *Schema) Categories(prefix string) []string {
	var out []string
	for _, c := range s.Columns {
		if strings.HasPrefix(c, prefix) && len(c) > len(prefix) {
			out = append(out, strings.TrimPrefix(c, prefix))
		}
	}
	return out
}

// Validate checks the schema is usable before any prediction is served.
func (s *Schema) Validate(required ...string) error {
	if len(s.Columns) == 0 {
		return errors.New("schema has no columns")
	}
	seen := make(map[string]struct{}, len(s.Columns))
	for i, c := range s.Columns {
		if c == "" {
			return fmt.Errorf("schema column %d is blank", i)
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("schema column %q appears more than once", c)
		}
		seen[c] = struct{}{}
	}
	var missing []string
	for _, r := range required {
		if _, ok := seen[r]; !ok {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("schema is missing required columns %v", missing)
	}
	return nil
}

// Equal reports whether other has the same columns in the same order.
func (s *Schema) Equal(other []string) bool {
	if len(s.Columns) != len(other) {
		return false
	}
	for i := range other {
		if s.Columns[i] != other[i] {
			return false
		}
	}
	return true
}

// LoadExpectedColumns reads the header row of a reference dataset. Only the
// header is looked at; row contents are irrelevant.
func LoadExpectedColumns(path string) (*Schema, error) {
	var (
		head []string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		head, err = readXLSXHeader(path)
	case ".tsv":
		head, err = readDelimitedHeader(path, '\t')
	default:
		head, err = readDelimitedHeader(path, ',')
	}
	if err != nil {
		return nil, &SchemaLoadError{Path: path, Err: err}
	}

	cols := make([]string, 0, len(head))
	for _, h := range head {
		cols = append(cols, normHeader(h))
	}
	if len(cols) == 0 || (len(cols) == 1 && cols[0] == "") {
		return nil, &SchemaLoadError{Path: path, Err: errors.New("header row has no columns")}
	}

	s := NewSchema(cols)
	s.Path = path
	return s, nil
}

func readDelimitedHeader(path string, comma rune) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("file is empty")
		}
		return nil, err
	}
	return head, nil
}

func readXLSXHeader(path string) ([]string, error) {
	x, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer x.Close()

	sheets := x.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := x.Rows(sheets[0])
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Error(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}
	return rows.Columns()
}

// normHeader strips a BOM and padding but keeps the name otherwise verbatim,
// since column identity has to match the training header exactly.
func normHeader(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	return strings.TrimSpace(s)
}

func versionOf(cols []string) string {
	sum := sha256.Sum256([]byte(strings.Join(cols, "\x1f")))
	return hex.EncodeToString(sum[:8])
}
