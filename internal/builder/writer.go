package builder

import (
	"fmt"
	"io"
	"os"

	"github.com/scigolib/ip2cc/internal/format"
	"github.com/scigolib/ip2cc/internal/utils"
)

// CreateMode specifies the database file creation behavior.
type CreateMode int

const (
	// ModeTruncate creates a new file, truncating if it exists.
	ModeTruncate CreateMode = iota

	// ModeExclusive creates a new file, fails if it exists.
	ModeExclusive
)

// CreateFile opens the destination database file for writing.
func CreateFile(filename string, mode CreateMode) (*os.File, error) {
	switch mode {
	case ModeTruncate:
		return os.Create(filename)
	case ModeExclusive:
		return os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0666)
	default:
		return nil, fmt.Errorf("invalid create mode: %d", mode)
	}
}

// blockWriter emits fixed-size cluster blocks sequentially.
type blockWriter struct {
	w      io.Writer
	blocks int64
}

func (bw *blockWriter) writeBlock(buf []byte) error {
	if len(buf) != format.BlockSize {
		return fmt.Errorf("internal error: block of %d bytes, want %d", len(buf), format.BlockSize)
	}
	if _, err := bw.w.Write(buf); err != nil {
		return utils.WrapError("database write failed", err)
	}
	bw.blocks++
	return nil
}

// writeDB emits one block per cluster in ascending cluster order. Every
// slot not holding a node carries the sentinel; child indices are set
// only on even slots, from the tree links of the node occupying the
// slot. Written bytes total clusters*BlockSize.
func writeDB(entries []entry, clusters, firstTail int64, w io.Writer) (int64, error) {
	const k = format.NodesPerCluster

	// A final sanity pass before anything reaches disk.
	if clusters > int64(^uint16(0)) {
		return 0, fmt.Errorf("database needs %d clusters, the child index field carries at most %d", clusters, ^uint16(0))
	}
	perCluster := make([][]int32, clusters)
	for i := range entries {
		e := &entries[i]
		if e.cluster < 0 || e.cluster >= clusters {
			return 0, fmt.Errorf("internal error: entry %d has cluster %d of %d", i, e.cluster, clusters)
		}
		if e.slot < 0 || e.slot >= k {
			return 0, fmt.Errorf("internal error: entry %d has slot %d", i, e.slot)
		}
		perCluster[e.cluster] = append(perCluster[e.cluster], int32(i))
	}

	buf := utils.GetBuffer(format.BlockSize)
	defer utils.ReleaseBuffer(buf)
	bw := &blockWriter{w: w}
	var c format.Cluster

	for cl := int64(0); cl < clusters; cl++ {
		c.Reset()
		for _, idx := range perCluster[cl] {
			e := &entries[idx]
			if !c.Nodes[e.slot].Sentinel() {
				return 0, fmt.Errorf("internal error: cluster %d slot %d assigned twice", cl, e.slot)
			}
			c.Nodes[e.slot] = format.Node{IP: e.start, CCSZ: e.ccsz}
			if e.slot&1 == 0 {
				if e.left >= 0 {
					c.Next[e.slot] = uint16(entries[e.left].cluster)
				}
				if e.right >= 0 {
					c.Next[e.slot+1] = uint16(entries[e.right].cluster)
				}
			}
		}
		for i, nx := range c.Next {
			if nx != 0 && int64(nx) <= cl {
				return 0, fmt.Errorf("internal error: cluster %d next[%d] points back to %d", cl, i, nx)
			}
		}
		if cl < firstTail && len(perCluster[cl]) != k {
			return 0, fmt.Errorf("internal error: cluster %d holds %d nodes before the tail", cl, len(perCluster[cl]))
		}
		c.Marshal(buf)
		if err := bw.writeBlock(buf); err != nil {
			return 0, err
		}
	}
	return bw.blocks * format.BlockSize, nil
}
