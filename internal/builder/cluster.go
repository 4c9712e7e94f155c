package builder

import (
	"fmt"

	"github.com/scigolib/ip2cc/internal/format"
)

// packClusters walks the tree assigning every node a temporary cluster
// label and its slot within that cluster. A new cluster opens at every
// node whose level is a multiple of the per-cluster level count; slots
// follow the implicit balanced-BST layout, entering at the middle slot
// and halving the step on each descent. Temporary labels grow downward
// from -2 so the renumbering pass can tell them from final numbers.
func packClusters(entries []entry, root int32) error {
	const (
		k = format.NodesPerCluster
		l = format.TreeLevelsPerCluster
	)
	nextLabel := int64(-2)

	var walk func(idx int32, cluster int64, slot, step int32) error
	walk = func(idx int32, cluster int64, slot, step int32) error {
		if idx < 0 {
			return nil
		}
		e := &entries[idx]
		if e.level%l == 0 {
			cluster = nextLabel
			nextLabel--
			slot = k >> 1
			step = (k >> 2) + 1
		}
		if step <= 0 {
			// Both children of a zero-step node must be cluster roots;
			// anything else would need a seventh level in a six-level cluster.
			if (e.left >= 0 && entries[e.left].level%l != 0) ||
				(e.right >= 0 && entries[e.right].level%l != 0) {
				return fmt.Errorf("internal error: cluster %d ran out of slots below entry %d", cluster, idx)
			}
		}
		if e.cluster != unset || e.slot >= 0 {
			return fmt.Errorf("internal error: revisited entry %d during packing", idx)
		}
		e.cluster = cluster
		e.slot = slot
		if err := walk(e.left, cluster, slot-step, step>>1); err != nil {
			return err
		}
		return walk(e.right, cluster, slot+step, step>>1)
	}
	return walk(root, 0, 0, 0)
}

// renumberClusters replaces the temporary labels with final cluster
// numbers. The tree is scanned in level bands of one cluster's height;
// within a band, nodes are visited in descending start order, so
// shallower clusters get lower numbers than deeper ones and, within a
// band, rightmost clusters come first. High address ranges are the
// likelier query targets, and this puts the clusters serving them
// nearest the start of the file.
//
// Every cluster above the deepest band must hold a full complement of
// nodes. firstTail is the number of the first partially filled cluster,
// or the total count when every cluster is full.
func renumberClusters(entries []entry, maxLevel int32) (clusters, firstTail int64, err error) {
	const (
		k = format.NodesPerCluster
		l = format.TreeLevelsPerCluster
	)
	num := int64(-1)
	firstTail = -1

	closeCluster := func(levelMax int32, count int) error {
		if count == k {
			return nil
		}
		if levelMax < maxLevel-1 || count > k {
			return fmt.Errorf("internal error: cluster %d holds %d nodes, expected %d", num, count, k)
		}
		if firstTail < 0 {
			firstTail = num
		}
		return nil
	}

	for levelMin := int32(0); levelMin <= maxLevel; levelMin += l {
		levelMax := levelMin + l - 1
		old := int64(0) // no cluster open in this band yet
		count := 0
		for i := len(entries) - 1; i >= 0; i-- {
			e := &entries[i]
			if e.level < levelMin || e.level > levelMax {
				continue
			}
			if old == 0 || e.cluster > old {
				if old != 0 {
					if err := closeCluster(levelMax, count); err != nil {
						return 0, 0, err
					}
				}
				old = e.cluster
				num++
				count = 0
			} else if e.cluster < old {
				return 0, 0, fmt.Errorf("internal error: cluster label %d out of order during renumbering", e.cluster)
			}
			e.cluster = num
			count++
		}
		if old != 0 {
			if err := closeCluster(levelMax, count); err != nil {
				return 0, 0, err
			}
		}
	}

	clusters = num + 1
	if firstTail < 0 {
		firstTail = clusters
	}
	return clusters, firstTail, nil
}
