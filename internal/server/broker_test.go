package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBrokerFanout(t *testing.T) {
	b := newBroker()
	go b.Start()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()

	b.Publish()

	for _, ch := range []chan struct{}{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatal("reload signal never arrived")
		}
	}

	b.Unsubscribe(ch1)
	b.Publish()

	select {
	case <-ch2:
	case <-time.After(2 * time.Second):
		t.Fatal("reload signal never arrived after unsubscribe")
	}

	require.Len(t, ch1, 0)
}
