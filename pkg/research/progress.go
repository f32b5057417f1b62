package research

import "sync"

// tracker owns the progress counters of one run. Updates are applied under a
// mutex and snapshots are delivered in order by a single goroutine, so a slow
// callback never holds up research.
type tracker struct {
	mu      sync.Mutex
	state   Progress
	pending []Progress
	closed  bool

	fn     func(Progress)
	notify chan struct{}
	done   chan struct{}
}

func newTracker(fn func(Progress), depth, breadth int) *tracker {
	t := &tracker{
		state: Progress{
			CurrentDepth:   depth,
			TotalDepth:     depth,
			CurrentBreadth: breadth,
			TotalBreadth:   breadth,
		},
		fn:     fn,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	if fn == nil {
		close(t.done)
		return t
	}
	go t.loop()
	return t
}

func (t *tracker) update(apply func(*Progress)) {
	t.mu.Lock()
	apply(&t.state)
	if t.fn != nil && !t.closed {
		t.pending = append(t.pending, t.state)
		select {
		case t.notify <- struct{}{}:
		default:
		}
	}
	t.mu.Unlock()
}

func (t *tracker) snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *tracker) loop() {
	defer close(t.done)
	for {
		t.mu.Lock()
		for len(t.pending) == 0 && !t.closed {
			t.mu.Unlock()
			<-t.notify
			t.mu.Lock()
		}
		batch := t.pending
		t.pending = nil
		closed := t.closed
		t.mu.Unlock()

		for _, p := range batch {
			t.fn(p)
		}
		if closed && len(batch) == 0 {
			return
		}
	}
}

// close stops accepting updates and waits until every queued snapshot has
// been delivered.
func (t *tracker) close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		<-t.done
		return
	}
	t.closed = true
	t.mu.Unlock()

	select {
	case t.notify <- struct{}{}:
	default:
	}
	<-t.done
}

func (t *tracker) planned(queries []SubQuery) {
	t.update(func(p *Progress) {
		p.TotalQueries += len(queries)
		p.CurrentQuery = queries[0].Query
	})
}

func (t *tracker) descended(query string, child Task) {
	t.update(func(p *Progress) {
		p.CurrentDepth = child.Depth
		p.CurrentBreadth = child.Breadth
		p.CompletedQueries++
		p.CurrentQuery = query
	})
}

func (t *tracker) finished(query string) {
	t.update(func(p *Progress) {
		p.CurrentDepth = 0
		p.CompletedQueries++
		p.CurrentQuery = query
	})
}
