package builder

import (
	"errors"
	"fmt"
	"io"

	"code.cloudfoundry.org/bytefmt"
	"github.com/sirupsen/logrus"

	"github.com/scigolib/ip2cc/internal/country"
)

// DefaultCSMap is the replacement applied to the deprecated ISO2 code
// "CS" unless the operator chooses otherwise. The datasets this tool
// was written for used CS for the Czech Republic.
const DefaultCSMap = "cz"

// Options configure a build.
type Options struct {
	// SourceFormat selects the CSV column ordering (1 to 4); 0 means 1.
	SourceFormat int

	// CSMap replaces the deprecated country code "CS". Empty leaves CS
	// unmapped, making it an unknown code that is reported and skipped.
	CSMap string

	// Log receives stage progress and per-row diagnostics. Nil disables
	// logging.
	Log logrus.FieldLogger
}

// Build reads (start, end, country) rows from src and writes the
// clustered database to dst. Malformed rows are reported and skipped;
// any invariant violation in the later stages aborts the build.
func Build(src io.Reader, dst io.Writer, opts Options) (*Stats, error) {
	log := opts.Log
	if log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		log = quiet
	}
	sourceFormat := opts.SourceFormat
	if sourceFormat == 0 {
		sourceFormat = 1
	}

	if err := selfCheck(); err != nil {
		return nil, err
	}

	log.Infof("reading source IP-to-country data")
	tr, err := NewTupleReader(src, sourceFormat)
	if err != nil {
		return nil, err
	}
	l := newList(opts.CSMap, log)
	for {
		t, err := tr.Next()
		if err == io.EOF {
			break
		}
		var rowErr *RowError
		if errors.As(err, &rowErr) {
			l.stats.Skipped++
			log.Warnf("%v, skipping", rowErr)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading source data: %w", err)
		}
		if l.insert(t) && l.stats.Rows%10000 == 0 {
			log.Infof("read %d rows so far", l.stats.Rows)
		}
	}
	log.Infof("read %d rows (%d skipped, %d reordered, %d overlaps healed, %d deleted)",
		l.stats.Rows, l.stats.Skipped, l.stats.Reordered, l.stats.Overlaps, l.stats.OverlapDeleted)
	if len(l.entries) == 0 {
		return nil, errors.New("no usable ranges in source data")
	}

	log.Infof("coalescing and fragmenting ranges")
	l.coalesce()
	if err := l.fragment(); err != nil {
		return nil, err
	}
	if err := l.verify(); err != nil {
		return nil, err
	}
	log.Infof("%d ranges coalesced, %d entries added by fragmentation, %d entries total",
		l.stats.Coalesced, l.stats.Fragmented, l.stats.Entries)

	log.Infof("building balanced binary tree")
	root, maxLevel, err := buildTree(l.entries)
	if err != nil {
		return nil, err
	}

	log.Infof("creating clusters")
	if err := packClusters(l.entries, root); err != nil {
		return nil, err
	}
	clusters, firstTail, err := renumberClusters(l.entries, maxLevel)
	if err != nil {
		return nil, err
	}
	l.stats.Clusters = clusters
	l.stats.FirstTail = firstTail

	log.Infof("writing %d clusters", clusters)
	bytes, err := writeDB(l.entries, clusters, firstTail, dst)
	if err != nil {
		return nil, err
	}
	l.stats.Bytes = bytes
	log.Infof("database written: %s in %d clusters", bytefmt.ByteSize(uint64(bytes)), clusters)

	stats := l.stats
	return &stats, nil
}

// selfCheck verifies the country table round-trips through Find, the
// same startup assertion the lookup side relies on.
func selfCheck() error {
	for i := 0; i < country.Count; i++ {
		if country.Find(country.Upper(country.ID(i))) != country.ID(i) {
			return fmt.Errorf("internal error: country table lookup broken at %d", i)
		}
	}
	return nil
}
