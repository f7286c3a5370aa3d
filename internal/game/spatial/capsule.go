package spatial

// Narrow-phase tests. Every product is wrapped in an explicit float64
// conversion so the compiler cannot fuse it into a multiply-add; overlap
// answers must agree bit for bit across architectures.

// SegmentDistSq returns the squared distance from point (px, py) to the
// segment (ax, ay)-(bx, by).
func SegmentDistSq(ax, ay, bx, by, px, py float64) float64 {
	dx, dy := bx-ax, by-ay
	wx, wy := px-ax, py-ay

	lenSq := float64(dx*dx) + float64(dy*dy)
	t := 0.0
	if lenSq > 0 {
		t = (float64(wx*dx) + float64(wy*dy)) / lenSq
		t = min(max(t, 0), 1)
	}

	cx := px - (ax + float64(t*dx))
	cy := py - (ay + float64(t*dy))
	return float64(cx*cx) + float64(cy*cy)
}

// CapsuleHitsCircle reports whether a circle of radius r swept from a to b
// overlaps the circle at (cx, cy) with radius cr. Touching counts as a hit.
func CapsuleHitsCircle(ax, ay, bx, by, r, cx, cy, cr float64) bool {
	reach := r + cr
	return SegmentDistSq(ax, ay, bx, by, cx, cy) <= float64(reach*reach)
}

// DistSq returns the squared distance between two points.
func DistSq(ax, ay, bx, by float64) float64 {
	dx, dy := bx-ax, by-ay
	return float64(dx*dx) + float64(dy*dy)
}
