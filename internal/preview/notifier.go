package preview

import "sync"

// notifier tells connected pages that a new figure is available. Listeners
// receive the new figure ID.
type notifier struct {
	mu        sync.RWMutex
	listeners map[chan string]struct{}
}

func newNotifier() *notifier {
	return &notifier{
		listeners: make(map[chan string]struct{}),
	}
}

// subscribe returns a channel receiving figure IDs. The caller must call
// unsubscribe when done.
func (n *notifier) subscribe() chan string {
	ch := make(chan string, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

func (n *notifier) unsubscribe(ch chan string) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// broadcast sends id to all listeners without blocking. A listener that has
// not consumed the previous ID still reloads once, so the newer ID is dropped.
func (n *notifier) broadcast(id string) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- id:
		default:
		}
	}
}

func (n *notifier) count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
