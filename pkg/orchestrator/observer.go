package orchestrator

import (
	"context"
	"sync"
)

// Observer receives every published state in publication order. OnState
// runs on the publishing goroutine and must not call Initialize, Refresh or
// Clear on the same orchestrator; reading State is fine.
type Observer[T any] interface {
	OnState(State[T])
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc[T any] func(State[T])

func (f ObserverFunc[T]) OnState(s State[T]) { f(s) }

// Subscription detaches an observer.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe stops further notifications. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// Subscribe registers obs for all future state changes.
func (o *Orchestrator[K, T]) Subscribe(obs Observer[T]) *Subscription {
	o.mu.Lock()
	id := o.nextObserver
	o.nextObserver++
	o.observers[id] = obs
	o.mu.Unlock()

	return &Subscription{cancel: func() {
		o.mu.Lock()
		delete(o.observers, id)
		o.mu.Unlock()
	}}
}

// Watch returns a channel carrying the current state followed by every
// change until ctx is done, when the channel is closed. A slow reader
// misses intermediate states but always receives the latest one.
func (o *Orchestrator[K, T]) Watch(ctx context.Context) <-chan State[T] {
	ch := make(chan State[T], 1)

	o.notifyMu.Lock()
	ch <- o.State()
	sub := o.Subscribe(ObserverFunc[T](func(s State[T]) {
		select {
		case ch <- s:
		default:
			// Drop the unread state in favour of the newer one.
			select {
			case <-ch:
			default:
			}
			ch <- s
		}
	}))
	o.notifyMu.Unlock()

	go func() {
		<-ctx.Done()
		// Holding notifyMu guarantees no send is in progress when ch closes.
		o.notifyMu.Lock()
		sub.Unsubscribe()
		close(ch)
		o.notifyMu.Unlock()
	}()
	return ch
}

// notify must be called with notifyMu held.
func (o *Orchestrator[K, T]) notify(s State[T]) {
	o.mu.Lock()
	observers := make([]Observer[T], 0, len(o.observers))
	for _, obs := range o.observers {
		observers = append(observers, obs)
	}
	o.mu.Unlock()

	for _, obs := range observers {
		obs.OnState(s)
	}
}
