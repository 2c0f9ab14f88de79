package cookiestore

import (
	"net/http"
	"net/http/cookiejar"
	"sync"
	"sync/atomic"

	"golang.org/x/net/publicsuffix"
)

var (
	defaultStore atomic.Pointer[Store]
	defaultMu    sync.Mutex
)

// Default returns the process-wide Store, constructing it on first use.
// Concurrent first callers all receive the same instance.
func Default() *Store {
	if s := defaultStore.Load(); s != nil {
		return s
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()

	if s := defaultStore.Load(); s != nil {
		return s
	}

	s := New()
	defaultStore.Store(s)

	return s
}

// Store maps each Owner to its own cookie jar.
type Store struct {
	mu   sync.RWMutex
	jars map[Owner]http.CookieJar
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		jars: make(map[Owner]http.CookieJar),
	}
}

// Jar returns the jar bound to owner, registering an empty one the
// first time owner is seen.
func (s *Store) Jar(owner Owner) http.CookieJar {
	s.mu.RLock()
	jar, ok := s.jars[owner]
	s.mu.RUnlock()
	if ok {
		return jar
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Lost the race to another registration for the same owner.
	if jar, ok := s.jars[owner]; ok {
		return jar
	}

	jar = newJar()
	s.jars[owner] = jar

	return jar
}

// Clear discards the jar bound to owner. The next call to Jar for that
// owner starts from an empty jar.
func (s *Store) Clear(owner Owner) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.jars, owner)
}

// ClearAll discards every jar in the store.
//
// Owners with requests in flight may still absorb cookies into the jar
// they resolved before the call, so ClearAll is meant for teardown or a
// full session reset rather than use alongside live traffic.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.jars)
}

// Len reports how many owners currently have a jar.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.jars)
}

func newJar() http.CookieJar {
	// cookiejar.New only fails on invalid options.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return jar
}
