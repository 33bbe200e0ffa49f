// Package compress provides the block compression used by persisted trees.
//
// A block is framed as [UncompressedSize uint32][CompressedSize uint32][Data...].
// CompressedSize 0 means the data is stored raw because compression did not help.
package compress
