package historyqueue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/5w1tchy/pwcheck-api/internal/logging"
	"github.com/5w1tchy/pwcheck-api/internal/store/history"
	"go.uber.org/zap"
)

// Inserter persists a batch of entries.
type Inserter interface {
	InsertBatch(ctx context.Context, entries []history.Entry) error
}

type Options struct {
	Buffer     int
	Workers    int
	BatchSize  int
	FlushEvery time.Duration
	WriteTO    time.Duration
}

// DefaultOptions: buf=10000, workers=2, batches of 100 flushed every 250ms.
func DefaultOptions() Options {
	return Options{
		Buffer:     10000,
		Workers:    2,
		BatchSize:  100,
		FlushEvery: 250 * time.Millisecond,
		WriteTO:    500 * time.Millisecond,
	}
}

// Queue records analyses off the request path. Enqueue never blocks; when the
// buffer is full the entry is dropped and counted.
type Queue struct {
	ins     Inserter
	log     *zap.Logger
	opts    Options
	ch      chan history.Entry
	kicks   []chan struct{}
	pend    pendingSet
	done    chan struct{}
	wg      sync.WaitGroup
	stop    sync.Once
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// Start spins up opts.Workers workers. Zero option fields take their defaults.
func Start(ins Inserter, log *zap.Logger, opts Options) *Queue {
	def := DefaultOptions()
	if opts.Buffer <= 0 {
		opts.Buffer = def.Buffer
	}
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.FlushEvery <= 0 {
		opts.FlushEvery = def.FlushEvery
	}
	if opts.WriteTO <= 0 {
		opts.WriteTO = def.WriteTO
	}

	q := &Queue{
		ins:   ins,
		log:   logging.OrNop(log),
		opts:  opts,
		ch:    make(chan history.Entry, opts.Buffer),
		kicks: make([]chan struct{}, opts.Workers),
		pend:  pendingSet{m: map[string]*pending{}},
		done:  make(chan struct{}),
	}
	for i := range q.kicks {
		q.kicks[i] = make(chan struct{}, 1)
		q.wg.Add(1)
		go q.worker(q.kicks[i])
	}
	return q
}

// Enqueue reports whether e was accepted.
func (q *Queue) Enqueue(e history.Entry) bool {
	if e.SessionID == "" {
		return false
	}
	select {
	case <-q.done:
		q.dropped.Add(1)
		return false
	default:
	}
	q.pend.add(e.SessionID)
	select {
	case q.ch <- e:
		return true
	default:
		q.pend.done(e.SessionID, 1)
		q.dropped.Add(1)
		return false
	}
}

// Flush waits until every entry accepted for sessionID so far has been
// written, or has failed to be. Workers are told to write their batches now
// instead of on the next tick.
func (q *Queue) Flush(ctx context.Context, sessionID string) error {
	idle := q.pend.idle(sessionID)
	if idle == nil {
		return nil
	}
	for _, k := range q.kicks {
		select {
		case k <- struct{}{}:
		default:
		}
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped counts entries lost to a full buffer or a stopped queue.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }

// Failed counts entries whose batch insert returned an error.
func (q *Queue) Failed() uint64 { return q.failed.Load() }

// Shutdown stops the workers after they drain and flush what is buffered.
func (q *Queue) Shutdown() {
	q.stop.Do(func() { close(q.done) })
	q.wg.Wait()
}

func (q *Queue) worker(kick <-chan struct{}) {
	defer q.wg.Done()
	tk := time.NewTicker(q.opts.FlushEvery)
	defer tk.Stop()

	batch := make([]history.Entry, 0, q.opts.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), q.opts.WriteTO)
		err := q.ins.InsertBatch(ctx, batch)
		cancel()
		if err != nil {
			q.failed.Add(uint64(len(batch)))
			q.log.Warn("history batch insert failed", zap.Int("entries", len(batch)), zap.Error(err))
		}
		q.pend.settle(batch)
		batch = batch[:0]
	}
	add := func(e history.Entry) {
		batch = append(batch, e)
		if len(batch) >= q.opts.BatchSize {
			flush()
		}
	}

	for {
		select {
		case <-q.done:
			for {
				select {
				case e := <-q.ch:
					add(e)
				default:
					flush()
					return
				}
			}
		case e := <-q.ch:
			add(e)
		case <-kick:
			for drained := false; !drained; {
				select {
				case e := <-q.ch:
					add(e)
				default:
					drained = true
				}
			}
			flush()
		case <-tk.C:
			flush()
		}
	}
}

// pendingSet counts accepted but unwritten entries per session.
type pendingSet struct {
	mu sync.Mutex
	m  map[string]*pending
}

type pending struct {
	n    int
	zero chan struct{}
}

func (p *pendingSet) add(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.m[sessionID]
	if !ok {
		e = &pending{zero: make(chan struct{})}
		p.m[sessionID] = e
	}
	e.n++
}

func (p *pendingSet) done(sessionID string, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.m[sessionID]
	if !ok {
		return
	}
	if e.n -= n; e.n <= 0 {
		close(e.zero)
		delete(p.m, sessionID)
	}
}

func (p *pendingSet) settle(batch []history.Entry) {
	for _, e := range batch {
		p.done(e.SessionID, 1)
	}
}

// idle is closed once sessionID has nothing pending; nil means it already has not.
func (p *pendingSet) idle(sessionID string) <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.m[sessionID]; ok {
		return e.zero
	}
	return nil
}
