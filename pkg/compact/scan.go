package compact

// exclusiveScan computes offsets[i] = sum of counts[j] for j < i.
// Serial on purpose: there is one entry per BlockRows rows, and the
// result must not depend on block completion order.
func exclusiveScan(counts []int32, offsets []int32) {
	var sum int32
	for i := range counts {
		offsets[i] = sum
		sum += counts[i]
	}
}

// resolveOutputSize derives the compacted length from the last
// block's offset and count. Reading these two scalars is the
// pipeline's single mandatory synchronization point: destination
// sizing is a genuine data dependency on the count stage.
func resolveOutputSize(counts []int32, offsets []int32) int {
	if len(counts) == 0 {
		return 0
	}
	last := len(counts) - 1
	return int(offsets[last] + counts[last])
}
