package middleware

import (
	"context"
	"sync"

	"homio/internal/app/commands"
)

// SerializedCommand is implemented by commands that must not run concurrently
// with other commands sharing the same key.
type SerializedCommand interface {
	commands.Command
	SerializationKey() string
}

// KeyedMutex hands out one lock per key. Locks are created on demand and
// dropped once no caller holds or waits for them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is free or ctx is done. The returned func releases it.
func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &keyLock{ch: make(chan struct{}, 1)}
		m.locks[key] = lock
	}
	lock.refs++
	m.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
		return func() {
			<-lock.ch
			m.release(key, lock)
		}, nil
	case <-ctx.Done():
		m.release(key, lock)
		return nil, ctx.Err()
	}
}

func (m *KeyedMutex) release(key string, lock *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(m.locks, key)
	}
}

// Serialize runs SerializedCommands with the same key one at a time. It must
// wrap Transaction so the lock covers the whole check-then-write sequence.
func Serialize(locks *KeyedMutex) CommandMiddleware {
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			sc, ok := cmd.(SerializedCommand)
			if !ok {
				return nextFn(ctx, cmd)
			}
			key := sc.SerializationKey()
			if key == "" {
				return nextFn(ctx, cmd)
			}
			unlock, err := locks.Lock(ctx, key)
			if err != nil {
				return nil, err
			}
			defer unlock()
			return nextFn(ctx, cmd)
		})
	}
}
