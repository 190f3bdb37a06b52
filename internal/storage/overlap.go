package storage

// Overlaps reports whether the half-open intervals [a.StartTime, a.EndTime)
// and [b.StartTime, b.EndTime) intersect. Touching endpoints do not conflict.
func Overlaps(a Block, b Block) bool {
	return a.StartTime.Before(b.EndTime) && b.StartTime.Before(a.EndTime)
}
