package server

// Broker fans one reload signal out to every connected livereload client.
type Broker struct {
	publishCh chan struct{}
	subCh     chan chan struct{}
	unsubCh   chan chan struct{}
}

func newBroker() *Broker {
	return &Broker{
		publishCh: make(chan struct{}, 1),
		subCh:     make(chan chan struct{}),
		unsubCh:   make(chan chan struct{}),
	}
}

func (b *Broker) Start() {
	subs := map[chan struct{}]struct{}{}
	for {
		select {
		case ch := <-b.subCh:
			subs[ch] = struct{}{}
		case ch := <-b.unsubCh:
			delete(subs, ch)
		case <-b.publishCh:
			for ch := range subs {
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}
}

func (b *Broker) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	b.subCh <- ch
	return ch
}

func (b *Broker) Unsubscribe(ch chan struct{}) {
	b.unsubCh <- ch
}

func (b *Broker) Publish() {
	select {
	case b.publishCh <- struct{}{}:
	default:
	}
}
