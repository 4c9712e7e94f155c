package builder

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTupleReaderFormats(t *testing.T) {
	tests := []struct {
		name   string
		format int
		row    string
	}{
		{"format 1", 1, `"16777216","16777471","AU","apnic","1.0.0.0"`},
		{"format 2", 2, `"16777216","16777471","AU","apnic"`},
		{"format 3", 3, `"a","b","16777216","16777471","AU","apnic","1.0.0.0"`},
		{"format 4", 4, `"a","b","16777216","16777471","AU","apnic"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTupleReader(strings.NewReader(tt.row+"\n"), tt.format)
			require.NoError(t, err)

			tup, err := tr.Next()
			require.NoError(t, err)
			require.Equal(t, uint32(16777216), tup.Start)
			require.Equal(t, uint32(16777471), tup.End)
			require.Equal(t, "AU", tup.Code)

			_, err = tr.Next()
			require.Equal(t, io.EOF, err)
		})
	}
}

func TestTupleReaderUnquoted(t *testing.T) {
	tr, err := NewTupleReader(strings.NewReader("1,2,PT,x\n"), 2)
	require.NoError(t, err)
	tup, err := tr.Next()
	require.NoError(t, err)
	require.Equal(t, "PT", tup.Code)
}

func TestTupleReaderBadRows(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"wrong column count", `"1","2","AU"`},
		{"non-numeric start", `"x","2","AU","r","c"`},
		{"non-numeric end", `"1","x","AU","r","c"`},
		{"start too large", `"4294967296","2","AU","r","c"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTupleReader(strings.NewReader(tt.row+"\n"), 1)
			require.NoError(t, err)
			_, err = tr.Next()
			var rowErr *RowError
			require.ErrorAs(t, err, &rowErr)
		})
	}
}

func TestTupleReaderSkipsBadRowThenContinues(t *testing.T) {
	src := "\"x\",\"2\",\"AU\",\"r\",\"c\"\n" +
		"\"10\",\"20\",\"PT\",\"r\",\"c\"\n"
	tr, err := NewTupleReader(strings.NewReader(src), 1)
	require.NoError(t, err)

	_, err = tr.Next()
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)

	tup, err := tr.Next()
	require.NoError(t, err)
	require.Equal(t, uint32(10), tup.Start)
}

func TestNewTupleReaderUnknownFormat(t *testing.T) {
	_, err := NewTupleReader(strings.NewReader(""), 5)
	require.Error(t, err)
	_, err = NewTupleReader(strings.NewReader(""), 0)
	require.Error(t, err)
}
