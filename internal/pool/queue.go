package pool

import "context"

// newUnbounded shuttles items from in to the returned channel through an
// in-memory buffer, so producers never block on submission. The returned
// channel closes once in is closed and the buffer has drained; cancelling
// ctx stops the shuttle and drops whatever is still buffered (those items
// never started, so no events are owed for them).
func newUnbounded(ctx context.Context, in <-chan item) <-chan item {
	out := make(chan item)
	go func() {
		defer close(out)
		var buf []item
		for in != nil || len(buf) > 0 {
			var outCh chan item
			var next item
			if len(buf) > 0 {
				outCh = out
				next = buf[0]
			}
			select {
			case <-ctx.Done():
				return
			case it, ok := <-in:
				if !ok {
					in = nil
					continue
				}
				buf = append(buf, it)
			case outCh <- next:
				buf = buf[1:]
				if len(buf) == 0 {
					buf = nil
				}
			}
		}
	}()
	return out
}
