// Package ip2cc answers which ISO-3166 country owns an IPv4 address,
// from a compact read-only database of clustered binary search tree
// blocks. A query costs a handful of sequential block reads and no
// long-lived memory beyond the open file handle; the database file is
// immutable after build, so any number of processes may share it.
package ip2cc

import (
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"runtime"

	"github.com/scigolib/ip2cc/internal/country"
	"github.com/scigolib/ip2cc/internal/format"
	"github.com/scigolib/ip2cc/internal/utils"
)

// ErrNotFound reports that no stored range covers the queried address.
// The database legitimately has holes; this is a miss, not a failure.
var ErrNotFound = errors.New("address not in database")

// ErrCorrupt reports a structurally invalid database: a truncated
// cluster or a child index that does not point strictly forward.
var ErrCorrupt = errors.New("database is corrupt")

// DB is an open database handle. Queries may run concurrently: each
// lookup uses its own pooled block buffer and the underlying reader is
// accessed only through ReadAt.
type DB struct {
	r      utils.ReaderAt
	closer io.Closer
}

// Open opens a database file for lookups.
func Open(filename string) (*DB, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, utils.WrapError("database open failed", err)
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, utils.WrapError("database stat failed", err)
	}
	if fi.Size() == 0 || fi.Size()%format.BlockSize != 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%w: file size %d is not a positive multiple of %d",
			ErrCorrupt, fi.Size(), format.BlockSize)
	}
	return &DB{r: f, closer: f}, nil
}

// OpenReader wraps an existing reader as a database handle. Closing the
// returned DB does not close the reader.
func OpenReader(r io.ReaderAt) *DB {
	return &DB{r: r}
}

// Close releases the underlying file. It is safe to call Close multiple
// times.
func (db *DB) Close() error {
	if db.closer == nil {
		db.r = nil
		return nil
	}
	err := db.closer.Close()
	db.closer = nil
	db.r = nil
	return err
}

// Lookup returns the lowercase ISO2 code owning ip, or ErrNotFound.
func (db *DB) Lookup(ip uint32) (string, error) {
	id, err := db.LookupID(ip)
	if err != nil {
		return "", err
	}
	return country.Lower(country.ID(id)), nil
}

// LookupString parses a dotted-quad IPv4 address and looks it up.
func (db *DB) LookupString(addr string) (string, error) {
	ip, err := ParseIPv4(addr)
	if err != nil {
		return "", err
	}
	return db.Lookup(ip)
}

// LookupID returns the country table index owning ip. The descent reads
// one cluster per level band: binary-search the cluster's node array,
// and on falling out at a leaf slot follow its child-cluster index.
// Child indices must strictly increase, which both places hot clusters
// near the file start and bounds the loop on corrupt input.
func (db *DB) LookupID(ip uint32) (int, error) {
	if db.r == nil {
		return -1, errors.New("database is closed")
	}
	buf := utils.GetBuffer(format.BlockSize)
	defer utils.ReleaseBuffer(buf)

	prev := int64(-1)
	cur := int64(0)
	for {
		if cur <= prev {
			return -1, fmt.Errorf("%w: cluster %d links back to cluster %d", ErrCorrupt, prev, cur)
		}
		if err := db.readCluster(buf, cur); err != nil {
			return -1, err
		}

		i := int(format.NodesPerCluster >> 1)
		step := int(format.NodesPerCluster>>2) + 1
		var n format.Node
		for {
			n = format.NodeAt(buf, i)
			if n.Sentinel() {
				return -1, ErrNotFound
			}
			cc, length := format.DecodeCCSZ(n.CCSZ)
			switch {
			case ip < n.IP:
				i -= step
			case uint64(ip) >= uint64(n.IP)+length:
				i += step
			default:
				return cc, nil
			}
			if step == 0 {
				break
			}
			step >>= 1
		}

		// i is even here: every odd slot lies on the path already taken.
		var next uint16
		if ip < n.IP {
			next = format.NextAt(buf, i)
		} else {
			next = format.NextAt(buf, i|1)
		}
		if next == 0 {
			return -1, ErrNotFound
		}
		prev, cur = cur, int64(next)
	}
}

// Lookup6 is reserved for the IPv6 database layout. The on-disk format
// is defined, but no lookup is implemented; every query misses.
func (db *DB) Lookup6(ip [16]byte) (int, error) {
	return -1, ErrNotFound
}

func (db *DB) readCluster(buf []byte, cluster int64) error {
	err := utils.ReadFullAt(db.r, buf, cluster<<format.BlockShift)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: cluster %d truncated", ErrCorrupt, cluster)
	}
	return utils.WrapError(fmt.Sprintf("reading cluster %d", cluster), err)
}

// Code renders a country table index as its ISO2 code, uppercase on
// request. Out-of-range IDs render as "??".
func Code(id int, upper bool) string {
	if upper {
		return country.Upper(country.ID(id))
	}
	return country.Lower(country.ID(id))
}

// ParseIPv4 parses a dotted-quad address into its 32-bit value.
func ParseIPv4(s string) (uint32, error) {
	a, err := netip.ParseAddr(s)
	if err != nil || !a.Is4() {
		return 0, fmt.Errorf("bad IPv4 address %q", s)
	}
	b := a.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// DefaultDBPath returns the platform's conventional database location,
// used by the CLIs when no path is given.
func DefaultDBPath() string {
	if runtime.GOOS == "windows" {
		return `C:\esx\data\ip4.db`
	}
	return "/esx/data/ip4.db"
}
