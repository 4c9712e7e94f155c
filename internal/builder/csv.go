// Package builder turns a CSV of (start, end, country) IPv4 ranges into
// the clustered binary search tree database file. The pipeline runs in
// stages: ingest with overlap healing, coalescing, fragmentation to the
// node encoding, balanced tree construction, cluster packing and
// numbering, and finally the block writer.
package builder

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Tuple is one (start, end, iso2) row as produced by the CSV reader.
type Tuple struct {
	Start uint32
	End   uint32
	Code  string
	Line  int
}

// RowError reports a malformed CSV row. Rows failing this way are
// skipped; any other reader error aborts the build.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// columnLayouts maps each source format number to the index of the
// start-IP column and the total column count. The start, end and
// country columns are always adjacent.
var columnLayouts = map[int]struct{ first, fields int }{
	1: {0, 5},
	2: {0, 4},
	3: {2, 7},
	4: {2, 6},
}

// TupleReader produces tuples from one of the supported CSV column
// orderings.
type TupleReader struct {
	r     *csv.Reader
	first int
	line  int
}

// NewTupleReader wraps src with a reader for the given source format
// (1 to 4). Quoted and unquoted fields are both accepted.
func NewTupleReader(src io.Reader, sourceFormat int) (*TupleReader, error) {
	layout, ok := columnLayouts[sourceFormat]
	if !ok {
		return nil, fmt.Errorf("unknown source format %d", sourceFormat)
	}
	r := csv.NewReader(src)
	r.FieldsPerRecord = layout.fields
	r.ReuseRecord = true
	return &TupleReader{r: r, first: layout.first}, nil
}

// Next returns the next tuple. It returns io.EOF at end of input and
// *RowError for rows that cannot be parsed.
func (tr *TupleReader) Next() (Tuple, error) {
	tr.line++
	rec, err := tr.r.Read()
	if err == io.EOF {
		return Tuple{}, io.EOF
	}
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return Tuple{}, &RowError{Line: perr.Line, Err: perr.Err}
	}
	if err != nil {
		return Tuple{}, err
	}

	start, err := strconv.ParseUint(rec[tr.first], 10, 32)
	if err != nil {
		return Tuple{}, &RowError{Line: tr.line, Err: fmt.Errorf("bad start IP %q", rec[tr.first])}
	}
	end, err := strconv.ParseUint(rec[tr.first+1], 10, 32)
	if err != nil {
		return Tuple{}, &RowError{Line: tr.line, Err: fmt.Errorf("bad end IP %q", rec[tr.first+1])}
	}
	return Tuple{
		Start: uint32(start),
		End:   uint32(end),
		Code:  rec[tr.first+2],
		Line:  tr.line,
	}, nil
}
