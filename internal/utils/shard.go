package utils

// ShardStrings splits items into consecutive chunks of at most size elements
func ShardStrings(items []string, size int) [][]string {
	if len(items) == 0 {
		return nil
	}

	if size <= 0 {
		size = len(items)
	}

	ret := make([][]string, 0, (len(items)+size-1)/size)
	for len(items) > size {
		ret = append(ret, items[:size])
		items = items[size:]
	}

	if len(items) > 0 {
		ret = append(ret, items)
	}

	return ret
}
