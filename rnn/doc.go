// Package rnn implements ranged nearest neighbor search: every indexed
// instance within a radius of a query.
//
// Linear scans the whole dataset. Clustered prunes the tree with the
// triangle-inequality bounds of each cluster: clusters entirely outside the
// radius are skipped and clusters entirely inside it are taken whole.
package rnn
