package cakes

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hupe1980/cakes/dataset"
	"github.com/hupe1980/cakes/resource"
	"github.com/hupe1980/cakes/tree"
)

// Save writes the tree to w. The dataset is not written; Load needs it again.
func (ix *Index[T]) Save(ctx context.Context, w io.Writer) error {
	if err := ix.check(ctx); err != nil {
		return err
	}
	rw := resource.NewRateLimitedWriter(ctx, w, ix.resources)
	return tree.Write(rw, ix.tree, tree.WriteOptions{
		Codec:       ix.opts.codec,
		Compression: ix.opts.compression,
	})
}

// SaveFile writes the tree to filename. The file is replaced atomically.
func (ix *Index[T]) SaveFile(ctx context.Context, filename string) (err error) {
	defer func() { ix.opts.logger.LogSave(ctx, filename, err) }()

	f, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".tmp-*")
	if err != nil {
		return fmt.Errorf("save %s: %w", filename, err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = ix.Save(ctx, f); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("save %s: %w", filename, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("save %s: %w", filename, err)
	}
	if err = os.Rename(f.Name(), filename); err != nil {
		return fmt.Errorf("save %s: %w", filename, err)
	}
	return nil
}

// Load reads a tree written by Save and attaches it to data, which must be
// the dataset the tree was built over.
func Load[T any](ctx context.Context, r io.Reader, data dataset.Dataset[T], optFns ...Option) (*Index[T], error) {
	o := applyOptions(optFns)
	if err := validateOptions(o); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rr := resource.NewRateLimitedReader(ctx, r, resource.NewController(o.resources))
	t, err := tree.Read(rr, data)
	if err != nil {
		return nil, translateError(err)
	}
	return newIndex(t, o), nil
}

// LoadFile reads a tree file written by SaveFile.
func LoadFile[T any](ctx context.Context, filename string, data dataset.Dataset[T], optFns ...Option) (*Index[T], error) {
	o := applyOptions(optFns)

	f, err := os.Open(filename)
	if err != nil {
		err = fmt.Errorf("load %s: %w", filename, err)
		o.logger.LogLoad(ctx, filename, err)
		return nil, err
	}
	defer f.Close()

	ix, err := Load(ctx, bufio.NewReader(f), data, optFns...)
	o.logger.LogLoad(ctx, filename, err)
	return ix, err
}
