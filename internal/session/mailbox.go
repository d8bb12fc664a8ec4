package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MailboxConfig collects the optional settings of a Mailbox.
type MailboxConfig struct {
	// Buffer is the number of requests that may queue before callers block.
	Buffer int
	Logger *slog.Logger
	// Observe is invoked by the worker after every operation.
	Observe func(op string, err error)
}

type mailboxRequest struct {
	ctx   context.Context
	op    string
	run   func(context.Context) error
	reply chan error
}

// Mailbox funnels every cache operation through a single worker goroutine so
// that operations reach the backing store one at a time and in arrival order.
// A sequence of calls from one caller can still interleave with other callers.
type Mailbox struct {
	cache    Cache
	requests chan mailboxRequest
	done     chan struct{}
	logger   *slog.Logger
	observe  func(string, error)

	mu     sync.RWMutex
	closed bool
}

// NewMailbox starts the worker that owns cache.
func NewMailbox(cache Cache, cfg MailboxConfig) *Mailbox {
	if cfg.Buffer < 0 {
		cfg.Buffer = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observe := cfg.Observe
	if observe == nil {
		observe = func(string, error) {}
	}
	m := &Mailbox{
		cache:    cache,
		requests: make(chan mailboxRequest, cfg.Buffer),
		done:     make(chan struct{}),
		logger:   logger,
		observe:  observe,
	}
	go m.loop()
	return m
}

func (m *Mailbox) loop() {
	defer close(m.done)
	for req := range m.requests {
		if err := req.ctx.Err(); err != nil {
			req.reply <- err
			continue
		}
		err := req.run(req.ctx)
		if err != nil {
			m.logger.Debug("session cache op failed", slog.String("op", req.op), slog.Any("error", err))
		}
		m.observe(req.op, err)
		req.reply <- err
	}
}

func (m *Mailbox) call(ctx context.Context, op string, run func(context.Context) error) error {
	req := mailboxRequest{ctx: ctx, op: op, run: run, reply: make(chan error, 1)}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrMailboxClosed
	}
	select {
	case m.requests <- req:
	case <-ctx.Done():
		m.mu.RUnlock()
		return ctx.Err()
	}
	m.mu.RUnlock()

	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Exists forwards to the owned cache.
func (m *Mailbox) Exists(ctx context.Context, key string) (bool, error) {
	var found bool
	err := m.call(ctx, "exists", func(ctx context.Context) error {
		var err error
		found, err = m.cache.Exists(ctx, key)
		return err
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Get forwards to the owned cache.
func (m *Mailbox) Get(ctx context.Context, key string) (*Record, error) {
	var rec *Record
	err := m.call(ctx, "get", func(ctx context.Context) error {
		var err error
		rec, err = m.cache.Get(ctx, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Set forwards to the owned cache.
func (m *Mailbox) Set(ctx context.Context, key string, rec Record, ttl time.Duration) error {
	return m.call(ctx, "set", func(ctx context.Context) error {
		return m.cache.Set(ctx, key, rec, ttl)
	})
}

// Update forwards to the owned cache.
func (m *Mailbox) Update(ctx context.Context, key string, rec Record) error {
	return m.call(ctx, "update", func(ctx context.Context) error {
		return m.cache.Update(ctx, key, rec)
	})
}

// Delete forwards to the owned cache.
func (m *Mailbox) Delete(ctx context.Context, key string) error {
	return m.call(ctx, "delete", func(ctx context.Context) error {
		return m.cache.Delete(ctx, key)
	})
}

// Close stops accepting requests, lets queued ones finish and waits for the
// worker to exit.
func (m *Mailbox) Close() {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.requests)
	}
	m.mu.Unlock()
	<-m.done
}

var _ Cache = (*Mailbox)(nil)
