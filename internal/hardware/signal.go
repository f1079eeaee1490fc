package hardware

// changeSignal hands change notifications from watcher goroutines to a
// dispatcher goroutine so a watcher never blocks on the receiver. A pending
// notification absorbs later ones; the receiver re-reads the state anyway.
type changeSignal struct {
	ch   chan struct{}
	stop chan struct{}
}

func newChangeSignal(onChange func()) *changeSignal {
	s := &changeSignal{
		ch:   make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
	go s.run(onChange)
	return s
}

func (s *changeSignal) notify() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

func (s *changeSignal) close() {
	close(s.stop)
}

func (s *changeSignal) run(onChange func()) {
	for {
		select {
		case <-s.stop:
			return
		case <-s.ch:
			onChange()
		}
	}
}
