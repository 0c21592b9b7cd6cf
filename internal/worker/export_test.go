package worker

// SetFlush replaces the connection flush used by Run.
func SetFlush(w *Worker, fn func() error) {
	w.flush = fn
}
