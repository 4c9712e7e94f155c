package ip2cc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/ip2cc/internal/format"
)

func writeTempFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestBuildStats(t *testing.T) {
	src := strings.Join([]string{
		row(0x0A000000, 0x0A000064, "FR"),
		row(0x0A000032, 0x0A0000C8, "DE"), // overlaps FR
		row(0x0B000000, 0x0B00007F, "AU"),
		row(0x0B000080, 0x0B0000FF, "AU"), // coalesces with the row above
		row(2000, 1000, "PT"),             // inverted, skipped
		row(3000, 3999, "XX"),             // unknown country, skipped
	}, "\n") + "\n"

	var out bytes.Buffer
	stats, err := Build(strings.NewReader(src), &out, BuildOptions{})
	require.NoError(t, err)

	require.Equal(t, 4, stats.Rows)
	require.Equal(t, 2, stats.Skipped)
	require.Equal(t, 1, stats.Overlaps)
	require.Equal(t, 0, stats.OverlapDeleted)
	require.Equal(t, 1, stats.Coalesced)
	require.Equal(t, int64(1), stats.Clusters)
	require.Equal(t, stats.Bytes, int64(out.Len()))
	require.Equal(t, int64(format.BlockSize), stats.Bytes)
	// fr range of 50 and de range of 151 fragment into two pieces each;
	// the coalesced au range of 256 stays whole.
	require.Equal(t, 2, stats.Fragmented)
	require.Equal(t, 5, stats.Entries)
}

func TestBuildSourceFormats(t *testing.T) {
	rows := map[int]string{
		1: `"1000","1999","PT","r","c"`,
		2: `"1000","1999","PT","r"`,
		3: `"x","y","1000","1999","PT","r","c"`,
		4: `"x","y","1000","1999","PT","r"`,
	}
	for sourceFormat, r := range rows {
		t.Run(fmt.Sprintf("format %d", sourceFormat), func(t *testing.T) {
			var out bytes.Buffer
			stats, err := Build(strings.NewReader(r+"\n"), &out, BuildOptions{
				SourceFormat: sourceFormat,
			})
			require.NoError(t, err)
			require.Equal(t, 1, stats.Rows)

			db := openImage(out.Bytes())
			code, err := db.Lookup(1500)
			require.NoError(t, err)
			require.Equal(t, "pt", code)
		})
	}
}

func TestBuildSkipsMalformedRows(t *testing.T) {
	src := `"not-a-number","2","AU","r","c"` + "\n" +
		row(1000, 1999, "PT") + "\n"

	var out bytes.Buffer
	stats, err := Build(strings.NewReader(src), &out, BuildOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Rows)
	require.Equal(t, 1, stats.Skipped)
}

func TestBuildEmptyInput(t *testing.T) {
	var out bytes.Buffer
	_, err := Build(strings.NewReader(""), &out, BuildOptions{})
	require.Error(t, err)
	require.Zero(t, out.Len())
}

func TestBuildUnknownFormat(t *testing.T) {
	var out bytes.Buffer
	_, err := Build(strings.NewReader("x\n"), &out, BuildOptions{SourceFormat: 9})
	require.Error(t, err)
}

func TestBuildCSMapChoices(t *testing.T) {
	src := row(1000, 1999, "CS") + "\n"

	var out bytes.Buffer
	_, err := Build(strings.NewReader(src), &out, BuildOptions{CSMap: "sk"})
	require.NoError(t, err)
	code, err := openImage(out.Bytes()).Lookup(1500)
	require.NoError(t, err)
	require.Equal(t, "sk", code)

	// Mapping CS to itself rejects it, leaving nothing to build.
	out.Reset()
	_, err = Build(strings.NewReader(src), &out, BuildOptions{CSMap: "cs"})
	require.Error(t, err)
}

func TestBuildFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "ranges.csv")
	dbPath := filepath.Join(dir, "ip4.db")

	src := row(0x01000000, 0x010000FF, "AU") + "\n" + row(1000, 1999, "PT") + "\n"
	require.NoError(t, writeTempFile(csvPath, src))

	stats, err := BuildFile(csvPath, dbPath, BuildOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, stats.Rows)

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()

	code, err := db.LookupString("1.0.0.128")
	require.NoError(t, err)
	require.Equal(t, "au", code)
}

func TestBuildFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := BuildFile(filepath.Join(dir, "missing.csv"), filepath.Join(dir, "ip4.db"), BuildOptions{})
	require.Error(t, err)
}

func TestOpenRejectsBadSizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.db")
	require.NoError(t, writeTempFile(path, "truncated"))

	_, err := Open(path)
	require.ErrorIs(t, err, ErrCorrupt)

	_, err = Open(filepath.Join(dir, "missing.db"))
	require.Error(t, err)
}
