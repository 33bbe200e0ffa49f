// Package tree implements the hierarchical metric tree searched by cakes.
//
// A Tree is a binary tree of Clusters over a Dataset. Every cluster has a
// center (one of its own instances), a radius (the exact maximum distance
// from the center to any instance it owns) and either no children or exactly
// two children that partition its instances. Each cluster owns a contiguous
// run of the tree's index permutation, so membership tests are O(1).
//
// Trees are immutable after Build or Read and safe for concurrent searches.
//
// # Construction
//
//	t, err := tree.Build(ctx, data,
//	    tree.WithMinCardinality(4),
//	    tree.WithParallelism(8),
//	)
//
// Build picks each center as the geometric median of (a seeded sample of) the
// cluster's instances, splits on the two mutually distant poles and recurses,
// growing sibling subtrees concurrently.
//
// # Persistence
//
//	err := tree.Write(w, t, tree.WriteOptions{Compression: compress.ZSTD})
//	t, err := tree.Read(r, data)
package tree
