package builder

import "fmt"

// treeBuilder links the normalized entries into a balanced binary search
// tree whose in-order traversal is ascending by start address.
type treeBuilder struct {
	entries  []entry
	levelMin int32
	levelMax int32
}

// buildTree returns the root entry index and the deepest empty level
// observed. The median choice is direction-dependent: sub-ranges hanging
// off a left edge pick the upper median, those off a right edge the
// lower one, which gathers nodes toward the middle of the address space
// where queries land; the extremes carry reserved ranges.
func buildTree(entries []entry) (root int32, maxLevel int32, err error) {
	b := &treeBuilder{
		entries:  entries,
		levelMin: int32(1)<<30 - 1,
	}
	root, _, err = b.build(0, len(entries), 0, true)
	if err != nil {
		return unset, 0, err
	}
	if b.levelMax < b.levelMin || b.levelMax-b.levelMin > 1 {
		return unset, 0, fmt.Errorf("internal error: tree leaves span levels %d to %d", b.levelMin, b.levelMax)
	}
	for i := range entries {
		if entries[i].level < 0 {
			return unset, 0, fmt.Errorf("internal error: entry %d not placed in the tree", i)
		}
	}
	return root, b.levelMax, nil
}

func (b *treeBuilder) build(lo, hi int, level int32, fromRight bool) (root int32, nodes int, err error) {
	n := hi - lo
	if n == 0 {
		if level < b.levelMin {
			b.levelMin = level
		}
		if level > b.levelMax {
			b.levelMax = level
		}
		return unset, 0, nil
	}

	i := (n >> 1) - ((n & 1) ^ 1)
	m := lo + i
	if fromRight {
		m = hi - 1 - i
	}
	e := &b.entries[m]
	if e.level >= 0 {
		return unset, 0, fmt.Errorf("internal error: revisited tree node %d", m)
	}
	e.level = level

	var nl, nr int
	e.left, nl, err = b.build(lo, m, level+1, true)
	if err != nil {
		return unset, 0, err
	}
	e.right, nr, err = b.build(m+1, hi, level+1, false)
	if err != nil {
		return unset, 0, err
	}
	if nl-nr > 1 || nr-nl > 1 {
		return unset, 0, fmt.Errorf("internal error: subtree at %d unbalanced (%d vs %d nodes)", m, nl, nr)
	}
	return int32(m), nl + nr + 1, nil
}
