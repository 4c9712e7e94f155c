package ip2cc

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/scigolib/ip2cc/internal/builder"
	"github.com/scigolib/ip2cc/internal/utils"
)

// BuildOptions configure database construction.
type BuildOptions struct {
	// SourceFormat selects the CSV column ordering (1 to 4); 0 means 1.
	SourceFormat int

	// CSMap replaces the deprecated country code "CS"; empty selects the
	// historical default "cz". Map CS to itself ("cs") to reject it as
	// an unknown code instead.
	CSMap string

	// Log receives build progress; nil keeps the build silent.
	Log logrus.FieldLogger
}

// BuildStats reports what a build did.
type BuildStats struct {
	Rows           int   // accepted input rows
	Skipped        int   // rows dropped: malformed, bad country, inverted range
	Reordered      int   // rows not inserted at the end of the list
	Overlaps       int   // existing ranges overlapped by a newer row
	OverlapDeleted int   // existing ranges removed: fully covered, or same start
	Coalesced      int   // adjacent same-country ranges merged
	Fragmented     int   // extra entries added by encoding fragmentation
	Entries        int   // normalized entries stored
	Clusters       int64 // clusters in the database file
	FirstTail      int64 // first partially filled cluster, or Clusters
	Bytes          int64 // database file size
}

// Build reads CSV rows from src and writes a database to dst.
func Build(src io.Reader, dst io.Writer, opts BuildOptions) (*BuildStats, error) {
	csMap := opts.CSMap
	if csMap == "" {
		csMap = builder.DefaultCSMap
	}
	s, err := builder.Build(src, dst, builder.Options{
		SourceFormat: opts.SourceFormat,
		CSMap:        csMap,
		Log:          opts.Log,
	})
	if err != nil {
		return nil, err
	}
	return &BuildStats{
		Rows:           s.Rows,
		Skipped:        s.Skipped,
		Reordered:      s.Reordered,
		Overlaps:       s.Overlaps,
		OverlapDeleted: s.OverlapDeleted,
		Coalesced:      s.Coalesced,
		Fragmented:     s.Fragmented,
		Entries:        s.Entries,
		Clusters:       s.Clusters,
		FirstTail:      s.FirstTail,
		Bytes:          s.Bytes,
	}, nil
}

// BuildFile builds the database from a CSV file path into dbPath,
// truncating any existing file.
func BuildFile(csvPath, dbPath string, opts BuildOptions) (*BuildStats, error) {
	src, err := os.Open(csvPath)
	if err != nil {
		return nil, utils.WrapError("source open failed", err)
	}
	defer func() { _ = src.Close() }()

	dst, err := builder.CreateFile(dbPath, builder.ModeTruncate)
	if err != nil {
		return nil, utils.WrapError("database create failed", err)
	}
	stats, err := Build(src, dst, opts)
	if err != nil {
		_ = dst.Close()
		return nil, err
	}
	if err := dst.Close(); err != nil {
		return nil, utils.WrapError("database close failed", err)
	}
	return stats, nil
}
