package optimizer

// Combinations enumerates all subsets of ids with exactly size elements,
// generated recursively head-first. Input order is preserved inside each
// subset and subsets come out lexicographically by input index, which makes
// the budget strategy's first-wins tie-break deterministic.
func Combinations(ids []string, size int) [][]string {
	if size <= 0 || size > len(ids) {
		return nil
	}
	if size == len(ids) {
		subset := make([]string, len(ids))
		copy(subset, ids)
		return [][]string{subset}
	}
	if size == 1 {
		out := make([][]string, 0, len(ids))
		for _, id := range ids {
			out = append(out, []string{id})
		}
		return out
	}

	var out [][]string
	// Subsets containing the head, then subsets of the tail.
	head, tail := ids[0], ids[1:]
	for _, rest := range Combinations(tail, size-1) {
		subset := make([]string, 0, size)
		subset = append(subset, head)
		subset = append(subset, rest...)
		out = append(out, subset)
	}
	out = append(out, Combinations(tail, size)...)
	return out
}
