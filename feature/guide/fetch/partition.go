package fetch

// Partition splits ids into consecutive batches of at most size elements.
// It returns ceil(len(ids)/size) batches; a non-positive size yields one batch.
func Partition(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	if size <= 0 || size >= len(ids) {
		return [][]string{ids}
	}

	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end:end])
	}
	return batches
}
