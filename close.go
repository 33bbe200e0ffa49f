package cakes

// Close marks the index closed. Searches started afterwards fail with
// ErrClosed; searches already running complete normally. Close is idempotent.
func (ix *Index[T]) Close() error {
	if ix == nil {
		return nil
	}
	ix.closed.Store(true)
	return nil
}
