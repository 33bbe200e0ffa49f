package tree

// DMin returns the lower bound on the distance from a query to any instance
// of a cluster, given the query's distance dc to the cluster's center.
// It is never negative.
func DMin(dc, radius float64) float64 {
	return max(0, dc-radius)
}

// DMax returns the upper bound on the distance from a query to any instance
// of a cluster, given the query's distance dc to the cluster's center.
func DMax(dc, radius float64) float64 {
	return dc + radius
}

// Bounds returns the distance from query to the center of c together with
// the lower and upper bounds on the distance from query to any instance of c.
func (t *Tree[T]) Bounds(query T, c *Cluster) (dc, dMin, dMax float64) {
	dc = t.CenterDistance(query, c)
	return dc, DMin(dc, c.radius), DMax(dc, c.radius)
}
