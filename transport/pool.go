// ConnPool pools long-lived connections to a single hub endpoint: a
// buffered channel as FIFO queue, lazy creation up to maxConns, and
// mark-unusable-on-error discard. Generic over any connection type with a
// Close method, so grpctransport can pool *grpc.ClientConn without this
// package knowing anything about gRPC.
package transport

import (
	"fmt"
	"sync"
)

// Closeable is the minimal contract ConnPool needs from a pooled
// connection.
type Closeable interface {
	Close() error
}

// ConnPool manages a pool of reusable connections to a single address.
type ConnPool[C Closeable] struct {
	mu       sync.Mutex
	conns    chan *PooledConn[C]    // Buffered channel as pool — FIFO, goroutine-safe
	addr     string                 // Target address
	maxConns int                    // Maximum number of connections
	curConns int                    // Currently created connections (may be < maxConns)
	factory  func() (C, error)      // Connection factory function
}

// PooledConn wraps a pooled connection with pool metadata.
type PooledConn[C Closeable] struct {
	Conn     C
	pool     *ConnPool[C]
	unusable bool // Marked true when the connection encounters an error
}

// MarkUnusable flags conn so the next Put discards rather than recycles it.
func (c *PooledConn[C]) MarkUnusable() {
	c.unusable = true
}

// NewConnPool creates a connection pool with the given max size.
// Connections are created lazily — the pool starts empty and grows on demand.
func NewConnPool[C Closeable](addr string, maxConns int, factory func() (C, error)) *ConnPool[C] {
	return &ConnPool[C]{
		conns:    make(chan *PooledConn[C], maxConns),
		addr:     addr,
		maxConns: maxConns,
		factory:  factory,
	}
}

// Get retrieves a connection from the pool.
// Strategy:
//  1. Try to get an existing connection from the channel (non-blocking select)
//  2. If pool is empty but under limit, create a new connection
//  3. If pool is empty and at limit, block until one is returned
func (p *ConnPool[C]) Get() (*PooledConn[C], error) {
	select {
	case conn := <-p.conns:
		if conn.unusable {
			return p.createNew()
		}
		return conn, nil
	default:
		// Pool is empty
		if p.curConns < p.maxConns {
			return p.createNew()
		}
		// At capacity — block until a connection is returned
		conn := <-p.conns
		return conn, nil
	}
}

// Put returns a connection to the pool.
// If the connection is marked unusable (error occurred), it's closed and discarded.
func (p *ConnPool[C]) Put(conn *PooledConn[C]) {
	if conn.unusable {
		conn.Conn.Close()
		p.mu.Lock()
		p.curConns--
		p.mu.Unlock()
		return
	}
	p.conns <- conn
}

// Close shuts down the pool and closes all connections.
func (p *ConnPool[C]) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	close(p.conns)
	for conn := range p.conns {
		conn.Conn.Close()
		p.curConns--
	}
	return nil
}

// createNew creates a new connection via the factory function.
// Protected by mutex to prevent exceeding maxConns under concurrent access.
func (p *ConnPool[C]) createNew() (*PooledConn[C], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.curConns >= p.maxConns {
		return nil, fmt.Errorf("connection pool exhausted")
	}

	conn, err := p.factory()
	if err != nil {
		return nil, err
	}

	p.curConns++
	return &PooledConn[C]{
		Conn: conn,
		pool: p,
	}, nil
}
