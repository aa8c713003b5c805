// Package query is a keyed cache of fetch results shared by every consumer in the process.
//
// Each key moves through idle → loading → success|error. Fresh entries are served without
// fetching; staleness is driven by invalidation only, there is no time-based expiry.
// Concurrent reads of one key share a single in-flight fetch, and when fetches for a key
// overlap the most recently started one decides the stored result.
package query

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrNoFetcher = errors.New("query: no fetcher registered for key")
	ErrEvicted   = errors.New("query: entry evicted while fetching")
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Fetcher loads the value for a key.
type Fetcher func(ctx context.Context) (any, error)

// Entry is a consistent snapshot of one cache entry.
type Entry struct {
	Key       Key
	Data      any
	HasData   bool
	Status    Status
	Err       error
	Stale     bool
	Fetching  bool
	FetchedAt time.Time
	// Version is unique within the Cache and grows every time new data is stored,
	// so it also tells apart entries that were evicted and fetched again.
	Version uint64
}

// Listener receives entry snapshots. Listeners run synchronously, in transition order,
// and must not call back into the Cache.
type Listener func(Entry)

type Option func(*Cache)

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithRevalidateOnRead makes a read of a fresh entry also start a background refresh.
func WithRevalidateOnRead(enabled bool) Option {
	return func(c *Cache) { c.revalidate = enabled }
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

type Cache struct {
	mu       sync.Mutex
	notifyMu sync.Mutex
	entries  map[string]*entry
	nextID   int
	seq      uint64

	base       context.Context
	revalidate bool
	now        func() time.Time
	log        logrus.FieldLogger
	metrics    *Metrics
}

type entry struct {
	key       Key
	id        string
	data      any
	hasData   bool
	status    Status
	err       error
	stale     bool
	fetchedAt time.Time
	version   uint64

	// gen is the generation of the most recently started fetch; staleAt is the
	// generation that was current when the entry was last invalidated.
	gen      uint64
	staleAt  uint64
	inflight *call
	fetcher  Fetcher
	watchers map[int]Listener
}

type call struct {
	gen  uint64
	done chan struct{}
	data any
	err  error
}

type notification struct {
	snap      Entry
	listeners []Listener
}

func New(opts ...Option) *Cache {
	l := logrus.New()
	l.SetOutput(io.Discard)
	c := &Cache{
		entries: make(map[string]*entry),
		base:    context.Background(),
		now:     time.Now,
		log:     l,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("component", "query")
	return c
}

// Read returns the cached value for key, fetching it when the entry is missing, stale or
// failed. Concurrent reads of the same key share one fetch. fetch may be nil when a
// fetcher was registered for key earlier.
//
// On failure Read returns the error together with the last successfully fetched data, if any.
// Cancelling ctx abandons the wait but not the shared fetch.
func (c *Cache) Read(ctx context.Context, key Key, fetch Fetcher) (any, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	if fetch != nil {
		e.fetcher = fetch
	}
	if e.fresh() {
		data := e.data
		var notes []notification
		if c.revalidate && e.inflight == nil {
			c.startLocked(context.WithoutCancel(ctx), e, false)
			notes = append(notes, c.noteLocked(e))
		}
		c.unlockAndNotify(notes)
		c.metrics.hit()
		return data, nil
	}
	if e.fetcher == nil {
		if e.status == StatusIdle && len(e.watchers) == 0 {
			delete(c.entries, e.id)
		}
		c.mu.Unlock()
		return nil, ErrNoFetcher
	}
	cl := e.usableInflight()
	var notes []notification
	if cl != nil {
		c.metrics.dedup()
	} else {
		c.metrics.miss()
		cl = c.startLocked(context.WithoutCancel(ctx), e, true)
		notes = append(notes, c.noteLocked(e))
	}
	c.unlockAndNotify(notes)
	return wait(ctx, cl)
}

// Refetch starts a new fetch for key even when one is already in flight and waits for it.
// The new fetch supersedes any earlier one.
func (c *Cache) Refetch(ctx context.Context, key Key) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[key.String()]
	if !ok || e.fetcher == nil {
		c.mu.Unlock()
		return nil, ErrNoFetcher
	}
	cl := c.startLocked(context.WithoutCancel(ctx), e, true)
	c.unlockAndNotify([]notification{c.noteLocked(e)})
	return wait(ctx, cl)
}

// Invalidate marks every entry whose key starts with prefix as stale. Watched entries are
// refetched immediately; unwatched ones on their next Read. It returns the number of
// matching entries; a prefix matching nothing is a no-op.
func (c *Cache) Invalidate(prefix Key) int {
	c.mu.Lock()
	var notes []notification
	n := 0
	for _, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		n++
		e.stale = true
		e.staleAt = e.gen
		if len(e.watchers) > 0 && e.fetcher != nil {
			c.startLocked(c.base, e, true)
		}
		notes = append(notes, c.noteLocked(e))
	}
	c.unlockAndNotify(notes)
	c.metrics.invalidated(n)
	c.log.WithFields(logrus.Fields{"prefix": prefix.String(), "entries": n}).Debug("invalidated")
	return n
}

// Watch registers fn as a visible consumer of key. It fetches when the entry is missing,
// stale or failed, delivers the current snapshot, and then every later transition until
// the returned cancel func is called.
func (c *Cache) Watch(key Key, fetch Fetcher, fn Listener) (cancel func()) {
	c.mu.Lock()
	e := c.entryLocked(key)
	if fetch != nil {
		e.fetcher = fetch
	}
	c.nextID++
	id := c.nextID
	e.watchers[id] = fn
	if !e.fresh() && e.usableInflight() == nil && e.fetcher != nil {
		c.metrics.miss()
		c.startLocked(c.base, e, true)
	}
	c.unlockAndNotify([]notification{c.noteLocked(e)})

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(e.watchers, id)
			c.mu.Unlock()
		})
	}
}

// Peek returns a snapshot of key without fetching.
func (c *Cache) Peek(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return Entry{}, false
	}
	return e.snapshot(), true
}

// Remove evicts the entry for key. In-flight results for it are discarded.
func (c *Cache) Remove(key Key) bool {
	c.mu.Lock()
	_, ok := c.entries[key.String()]
	delete(c.entries, key.String())
	c.mu.Unlock()
	if ok {
		c.metrics.evicted(1)
	}
	return ok
}

// Clear evicts every entry. Watchers of evicted entries stop receiving updates.
func (c *Cache) Clear() int {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
	c.metrics.evicted(n)
	c.log.WithField("entries", n).Debug("cleared")
	return n
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) entryLocked(key Key) *entry {
	id := key.String()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{
			key:      append(Key(nil), key...),
			id:       id,
			watchers: make(map[int]Listener),
		}
		c.entries[id] = e
	}
	return e
}

// startLocked begins a new generation for e. markLoading is false for background
// revalidation, which keeps a successful entry in the success state while it refreshes.
func (c *Cache) startLocked(ctx context.Context, e *entry, markLoading bool) *call {
	e.gen++
	cl := &call{gen: e.gen, done: make(chan struct{})}
	e.inflight = cl
	if markLoading {
		e.status = StatusLoading
	}
	c.log.WithFields(logrus.Fields{"key": e.id, "generation": cl.gen}).Debug("fetch started")
	go c.run(ctx, e, cl, e.fetcher)
	return cl
}

func (c *Cache) run(ctx context.Context, e *entry, cl *call, fetch Fetcher) {
	data, err := fetch(ctx)

	c.mu.Lock()
	current := c.entries[e.id] == e
	latest := current && cl.gen == e.gen
	if e.inflight == cl {
		e.inflight = nil
	}
	var (
		notes   []notification
		forward *call
		result  string
	)
	switch {
	case latest && err != nil:
		e.status = StatusError
		e.err = err
		e.stale = cl.gen <= e.staleAt
		cl.data, cl.err = e.data, err
		result = "error"
		notes = append(notes, c.noteLocked(e))
	case latest:
		e.data = data
		e.hasData = true
		e.status = StatusSuccess
		e.err = nil
		e.stale = cl.gen <= e.staleAt
		e.fetchedAt = c.now()
		c.seq++
		e.version = c.seq
		cl.data = data
		result = "success"
		notes = append(notes, c.noteLocked(e))
	case current && e.inflight != nil:
		forward = e.inflight
		result = "discarded"
	case current:
		cl.data, cl.err = e.data, e.err
		result = "discarded"
	default:
		cl.err = ErrEvicted
		result = "discarded"
	}
	c.unlockAndNotify(notes)

	c.metrics.fetched(result)
	log := c.log.WithFields(logrus.Fields{"key": e.id, "generation": cl.gen, "result": result})
	if err != nil {
		log = log.WithError(err)
	}
	log.Debug("fetch settled")

	if forward != nil {
		<-forward.done
		cl.data, cl.err = forward.data, forward.err
	}
	close(cl.done)
}

func (c *Cache) noteLocked(e *entry) notification {
	n := notification{snap: e.snapshot()}
	for _, fn := range e.watchers {
		n.listeners = append(n.listeners, fn)
	}
	return n
}

// unlockAndNotify releases c.mu and delivers notes. notifyMu is taken before c.mu is
// released so listeners observe transitions in the order they happened.
func (c *Cache) unlockAndNotify(notes []notification) {
	deliver := false
	for _, n := range notes {
		if len(n.listeners) > 0 {
			deliver = true
			break
		}
	}
	if !deliver {
		c.mu.Unlock()
		return
	}
	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()
	for _, n := range notes {
		for _, fn := range n.listeners {
			fn(n.snap)
		}
	}
}

// usableInflight returns the in-flight fetch unless it was started before the last
// invalidation, in which case its result is already known to be stale.
func (e *entry) usableInflight() *call {
	if e.inflight == nil || e.inflight.gen <= e.staleAt {
		return nil
	}
	return e.inflight
}

func (e *entry) fresh() bool {
	return e.status == StatusSuccess && !e.stale
}

func (e *entry) snapshot() Entry {
	return Entry{
		Key:       append(Key(nil), e.key...),
		Data:      e.data,
		HasData:   e.hasData,
		Status:    e.status,
		Err:       e.err,
		Stale:     e.stale,
		Fetching:  e.inflight != nil,
		FetchedAt: e.fetchedAt,
		Version:   e.version,
	}
}

func wait(ctx context.Context, cl *call) (any, error) {
	select {
	case <-cl.done:
		return cl.data, cl.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get is a typed Read.
func Get[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	var f Fetcher
	if fetch != nil {
		f = func(ctx context.Context) (any, error) { return fetch(ctx) }
	}
	v, err := c.Read(ctx, key, f)
	out, _ := v.(T)
	return out, err
}
