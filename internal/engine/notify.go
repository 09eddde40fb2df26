package engine

import (
	"sync"

	"tempo/internal/store"
)

// Change is one state transition, delivered to subscribers in the order
// transitions occurred. Entry is a snapshot of the live entry after the
// transition (the finalized entry for stop, nil after recover to idle).
type Change struct {
	State State
	Entry *store.TimeEntry
}

// notifier fans out changes to subscribers without ever blocking the
// publisher: each subscriber has its own FIFO queue drained by a goroutine,
// so a slow consumer sees events late rather than stalling the engine.
type notifier struct {
	mu   sync.Mutex
	subs map[<-chan Change]*subscriber
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[<-chan Change]*subscriber)}
}

func (n *notifier) subscribe() <-chan Change {
	s := newSubscriber()
	n.mu.Lock()
	n.subs[s.ch] = s
	n.mu.Unlock()
	return s.ch
}

func (n *notifier) unsubscribe(ch <-chan Change) {
	n.mu.Lock()
	s, ok := n.subs[ch]
	delete(n.subs, ch)
	n.mu.Unlock()
	if ok {
		s.stop()
	}
}

func (n *notifier) publish(c Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range n.subs {
		s.push(c)
	}
}

type subscriber struct {
	ch   chan Change
	quit chan struct{}

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Change
	stopped bool
}

func newSubscriber() *subscriber {
	s := &subscriber{
		ch:   make(chan Change),
		quit: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.drain()
	return s
}

func (s *subscriber) push(c Change) {
	s.mu.Lock()
	if !s.stopped {
		s.queue = append(s.queue, c)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *subscriber) stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.quit)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *subscriber) drain() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.stopped {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			close(s.ch)
			return
		}
		c := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.ch <- c:
		case <-s.quit:
			close(s.ch)
			return
		}
	}
}
