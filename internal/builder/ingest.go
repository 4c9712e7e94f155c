package builder

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/scigolib/ip2cc/internal/country"
	"github.com/scigolib/ip2cc/internal/format"
)

// unset marks a cluster label not yet assigned. Temporary cluster labels
// assigned during packing grow downward from -2, so -1 is free.
const unset = -1

// entry is one normalized range plus its tree and cluster bookkeeping.
// The entries slice is the builder's working set throughout: sorted and
// disjoint after ingest, annotated with levels and links by the tree
// build, with cluster and slot by the packing passes.
type entry struct {
	start uint32
	end   uint32
	cc    country.ID
	ccsz  uint16

	level   int32
	slot    int32
	cluster int64
	left    int32
	right   int32
}

// Stats accumulates the counters the builder reports.
type Stats struct {
	Rows           int   // accepted input rows
	Skipped        int   // rows dropped: malformed, bad country, inverted range
	Reordered      int   // rows not inserted at the end of the list
	Overlaps       int   // existing ranges overlapped by a newer row
	OverlapDeleted int   // existing ranges removed: fully covered, or same start
	Coalesced      int   // adjacent same-country ranges merged
	Fragmented     int   // extra entries added by encoding fragmentation
	Entries        int   // final normalized entry count
	Clusters       int64 // clusters in the database file
	FirstTail      int64 // first partially filled cluster, or Clusters
	Bytes          int64 // database file size
}

// list is the builder's ordered working set during ingest.
type list struct {
	entries []entry
	stats   Stats
	csMap   string
	log     logrus.FieldLogger
}

func newList(csMap string, log logrus.FieldLogger) *list {
	return &list{csMap: csMap, log: log}
}

// insert places a tuple into the sorted set, healing overlaps, and
// reports whether the row was accepted. The newer row wins: an
// overlapped predecessor is trimmed down to the new start (split in two
// if it extends past the new end), and overlapped successors are
// trimmed up or deleted. Rows with an inverted range or an unknown
// country are reported and skipped.
func (l *list) insert(t Tuple) bool {
	if t.End < t.Start {
		l.stats.Skipped++
		l.log.Warnf("line %d: bad IP range (start > end), skipping", t.Line)
		return false
	}
	cc := country.Find(country.Rewrite(t.Code, l.csMap))
	if cc == country.None {
		l.stats.Skipped++
		l.log.Warnf("line %d: bad country code %q, skipping", t.Line, t.Code)
		return false
	}
	l.stats.Rows++

	es := l.entries
	pos := sort.Search(len(es), func(i int) bool { return es[i].start > t.Start })
	if pos < len(es) {
		l.stats.Reordered++
	}

	// Heal against the predecessor.
	var tail *entry
	if pos > 0 && es[pos-1].end >= t.Start {
		l.stats.Overlaps++
		pred := &es[pos-1]
		if pred.end > t.End {
			// The new range lands inside the predecessor: keep its
			// uncovered upper part as a separate entry.
			tail = &entry{start: t.End + 1, end: pred.end, cc: pred.cc}
		}
		if pred.start == t.Start {
			l.stats.OverlapDeleted++
			es = append(es[:pos-1], es[pos:]...)
			pos--
		} else {
			pred.end = t.Start - 1
		}
	}

	// Heal against successors.
	for pos < len(es) && es[pos].start <= t.End {
		l.stats.Overlaps++
		if es[pos].end <= t.End {
			l.stats.OverlapDeleted++
			es = append(es[:pos], es[pos+1:]...)
		} else {
			es[pos].start = t.End + 1
			break
		}
	}

	ins := []entry{{start: t.Start, end: t.End, cc: cc}}
	if tail != nil {
		ins = append(ins, *tail)
	}
	es = append(es, ins...)
	copy(es[pos+len(ins):], es[pos:])
	copy(es[pos:], ins)
	l.entries = es
	return true
}

// coalesce merges adjacent entries with the same country.
func (l *list) coalesce() {
	out := l.entries[:0]
	for _, e := range l.entries {
		if n := len(out); n > 0 &&
			out[n-1].cc == e.cc &&
			uint64(out[n-1].end)+1 == uint64(e.start) {
			out[n-1].end = e.end
			l.stats.Coalesced++
			continue
		}
		out = append(out, e)
	}
	l.entries = out
}

// fragment splits every entry into pieces the node encoding can carry
// and stamps each piece's ccsz word.
func (l *list) fragment() error {
	out := make([]entry, 0, len(l.entries))
	for _, e := range l.entries {
		length := uint64(e.end) - uint64(e.start) + 1
		start := uint64(e.start)
		for k, piece := range format.SplitLength(length) {
			ccsz, err := format.EncodeCCSZ(int(e.cc), piece)
			if err != nil {
				return fmt.Errorf("range at %d: %w", e.start, err)
			}
			if k > 0 {
				l.stats.Fragmented++
			}
			out = append(out, entry{
				start:   uint32(start),
				end:     uint32(start + piece - 1),
				cc:      e.cc,
				ccsz:    ccsz,
				level:   unset,
				slot:    unset,
				cluster: unset,
				left:    unset,
				right:   unset,
			})
			start += piece
		}
		if start != uint64(e.end)+1 {
			return fmt.Errorf("internal error: fragmentation of range at %d covers up to %d, want %d",
				e.start, start-1, e.end)
		}
	}
	l.entries = out
	l.stats.Entries = len(out)
	return nil
}

// verify re-derives each entry's bounds from its encoding and checks the
// set is sorted and disjoint. A failure here is an internal bug, not an
// input problem.
func (l *list) verify() error {
	for i := range l.entries {
		e := &l.entries[i]
		cc, length := format.DecodeCCSZ(e.ccsz)
		if country.ID(cc) != e.cc {
			return fmt.Errorf("internal error: entry %d encodes country %d, want %d", i, cc, e.cc)
		}
		if uint64(e.start)+length-1 != uint64(e.end) {
			return fmt.Errorf("internal error: entry %d encodes length %d, range is [%d,%d]",
				i, length, e.start, e.end)
		}
		if i > 0 && uint64(l.entries[i-1].end) >= uint64(e.start) {
			return fmt.Errorf("internal error: entries %d and %d overlap", i-1, i)
		}
	}
	return nil
}
