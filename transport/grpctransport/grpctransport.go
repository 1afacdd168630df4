// Package grpctransport provides a concrete transport.DuplexStream over a
// gRPC bidirectional-streaming call.
//
// Frames are already self-describing MessagePack bytes (package protocol);
// this package only needs to move opaque bytes across the wire, so each
// frame is carried in a wrapperspb.BytesValue, protobuf's well-known
// wrapper for a bare byte slice, rather than a hand-generated service stub.
// There is no .proto file: the stream method is invoked generically via
// grpc.ClientConn.NewStream with a StreamDesc, the same low-level pattern
// generic gRPC proxies use when the payload shape is not known until
// runtime.
package grpctransport

import (
	"context"
	"fmt"
	"io"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"hubrpc/transport"
)

var streamDesc = grpc.StreamDesc{
	StreamName:    "Stream",
	ClientStreams: true,
	ServerStreams: true,
}

// Opener dials hub endpoints over gRPC, pooling *grpc.ClientConn per
// address via transport.ConnPool — one pool per distinct host.
type Opener struct {
	mu       sync.Mutex
	pools    map[string]*transport.ConnPool[*grpc.ClientConn]
	maxConns int
	dialOpts []grpc.DialOption
}

// NewOpener returns an Opener that keeps up to maxConnsPerHost pooled
// *grpc.ClientConn per distinct host.
func NewOpener(maxConnsPerHost int, dialOpts ...grpc.DialOption) *Opener {
	return &Opener{
		pools:    make(map[string]*transport.ConnPool[*grpc.ClientConn]),
		maxConns: maxConnsPerHost,
		dialOpts: dialOpts,
	}
}

func (o *Opener) poolFor(host string) *transport.ConnPool[*grpc.ClientConn] {
	o.mu.Lock()
	defer o.mu.Unlock()

	pool, ok := o.pools[host]
	if !ok {
		pool = transport.NewConnPool(host, o.maxConns, func() (*grpc.ClientConn, error) {
			return grpc.NewClient(host, o.dialOpts...)
		})
		o.pools[host] = pool
	}
	return pool
}

// OpenDuplex opens a new bidirectional-streaming call against host. The
// methodDescriptor is the hub's fully-qualified gRPC method name (e.g.
// "/hubrpc.Hub/Stream"); it is not interpreted here beyond being passed to
// grpc's NewStream.
//
// ctx is bound to the new stream for its entire lifetime: cancelling it is
// what makes a blocked ResponseStream().Next return (grpc aborts a pending
// RecvMsg when the stream's context is cancelled). Callers that want
// teardown to actually unblock the reader must pass a context they control
// independently of any short-lived per-call deadline — package hub does
// this by opening the stream against its own cancellation source rather
// than the ctx given to Connect.
func (o *Opener) OpenDuplex(ctx context.Context, methodDescriptor, host string) (transport.DuplexStream, error) {
	pool := o.poolFor(host)
	pooled, err := pool.Get()
	if err != nil {
		return nil, fmt.Errorf("grpctransport: get pooled conn: %w", err)
	}

	cs, err := pooled.Conn.NewStream(ctx, &streamDesc, methodDescriptor)
	if err != nil {
		pooled.MarkUnusable()
		pool.Put(pooled)
		return nil, fmt.Errorf("grpctransport: open stream: %w", err)
	}

	return &duplexStream{cs: cs, pool: pool, pooled: pooled}, nil
}

type duplexStream struct {
	cs     grpc.ClientStream
	pool   *transport.ConnPool[*grpc.ClientConn]
	pooled *transport.PooledConn[*grpc.ClientConn]

	returnOnce sync.Once
}

func (d *duplexStream) RequestStream() transport.RequestStream {
	return requestStream{d}
}

func (d *duplexStream) ResponseStream() transport.ResponseStream {
	return responseStream{d}
}

// returnConn puts the underlying *grpc.ClientConn back in the pool. Called
// once the response stream observes end-of-stream or an error, since the
// gRPC stream itself (not the conn) is torn down at that point.
func (d *duplexStream) returnConn() {
	d.returnOnce.Do(func() {
		d.pool.Put(d.pooled)
	})
}

type requestStream struct{ d *duplexStream }

func (r requestStream) Write(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.d.cs.SendMsg(&wrapperspb.BytesValue{Value: frame})
}

func (r requestStream) Complete(ctx context.Context) error {
	return r.d.cs.CloseSend()
}

type responseStream struct{ d *duplexStream }

func (r responseStream) Next(ctx context.Context) ([]byte, bool, error) {
	msg := new(wrapperspb.BytesValue)
	err := r.d.cs.RecvMsg(msg)
	if err == io.EOF {
		r.d.returnConn()
		return nil, false, nil
	}
	if err != nil {
		r.d.pooled.MarkUnusable()
		r.d.returnConn()
		select {
		case <-ctx.Done():
			return nil, false, nil
		default:
			return nil, false, fmt.Errorf("grpctransport: recv: %w", err)
		}
	}
	return msg.GetValue(), true, nil
}
