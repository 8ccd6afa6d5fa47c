package prot

import "sync"

// Locker is a set of mutexes by key. Unused mutexes are released.
type Locker struct {
	lk    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

// Lock locks the key and returns the unlock function.
func (l *Locker) Lock(key string) (unlock func()) {
	l.lk.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*keyLock)
	}
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{}
		l.locks[key] = kl
	}
	kl.refs++
	l.lk.Unlock()

	kl.Lock()
	return func() {
		kl.Unlock()

		l.lk.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(l.locks, key)
		}
		l.lk.Unlock()
	}
}
