package pricing

// VendorPartition is the subset of a cart's lines belonging to one
// vendor. Each partition is checked out as an independent order with
// its own breakdown and its own free delivery check.
type VendorPartition struct {
	VendorID string
	Lines    []Line
}

// PartitionByVendor groups lines by vendor, preserving the first-seen
// vendor order and the line order within each partition.
func PartitionByVendor(lines []Line) []VendorPartition {
	index := make(map[string]int, len(lines))
	partitions := make([]VendorPartition, 0, 2)
	for _, l := range lines {
		i, ok := index[l.VendorID]
		if !ok {
			i = len(partitions)
			index[l.VendorID] = i
			partitions = append(partitions, VendorPartition{VendorID: l.VendorID})
		}
		partitions[i].Lines = append(partitions[i].Lines, l)
	}
	return partitions
}
