package format

// IPv6 cluster geometry, reserved for forward compatibility. The layout
// mirrors the IPv4 one with wider nodes: only the high 64 bits of an
// address are stored (the low 64 are interface identifiers, useless for
// country attribution), and child indices widen to u32. No builder or
// lookup for this layout exists yet; Lookup6 always reports not found.
const (
	// NodesPerCluster6 is the node count of an IPv6 cluster's sub-tree.
	NodesPerCluster6 = (BlockSize >> 4) - 1

	// TreeLevelsPerCluster6 is the number of tree levels per IPv6 cluster.
	TreeLevelsPerCluster6 = BlockShift - 4

	// NextEntries6 is the length of the IPv6 child-cluster index array.
	NextEntries6 = NodesPerCluster6 + 1

	// NodeSize6 is the encoded size of one IPv6 node.
	NodeSize6 = 12
)

// Node6 is one IPv6 tree node: the high 64 bits of the first address,
// a 16-bit range size, and the packed country word (country in the high
// 9 bits, a leaf flag, and a 6-bit shift for the range size).
type Node6 struct {
	IP    [2]uint32
	Range uint16
	CCSZ  uint16
}

// Cluster6 is the in-memory form of one IPv6 disk block.
type Cluster6 struct {
	Nodes [NodesPerCluster6]Node6
	Next  [NextEntries6]uint32
}
