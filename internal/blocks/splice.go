package blocks

// Generic splice helpers shared with the editing session, which runs the same
// algorithms over elements instead of blocks.

// InsertAt returns a copy of items with v placed at index i (clamped).
func InsertAt[T any](items []T, i int, v T) []T {
	return spliceIn(items, clamp(i, 0, len(items)), v)
}

// RemoveAt returns a copy of items without index i. Out-of-range i returns a
// plain copy.
func RemoveAt[T any](items []T, i int) []T {
	if i < 0 || i >= len(items) {
		return append([]T(nil), items...)
	}
	return spliceOut(items, i)
}

// MoveBefore splices the item identified by draggedID out of items and
// re-inserts it immediately before targetID's original position. The second
// result is false, and items is returned as is, when the ids are equal or
// either one is missing.
func MoveBefore[T any](items []T, idOf func(T) string, draggedID, targetID string) ([]T, bool) {
	if draggedID == targetID {
		return items, false
	}
	from, to := -1, -1
	for i, it := range items {
		switch idOf(it) {
		case draggedID:
			from = i
		case targetID:
			to = i
		}
	}
	if from < 0 || to < 0 {
		return items, false
	}
	moved := items[from]
	out := spliceOut(items, from)
	if from < to {
		to--
	}
	return spliceIn(out, to, moved), true
}

func spliceIn[T any](items []T, i int, v T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, items[:i]...)
	out = append(out, v)
	return append(out, items[i:]...)
}

func spliceOut[T any](items []T, i int) []T {
	out := make([]T, 0, len(items))
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}
