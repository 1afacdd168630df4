// Command hubecho is a minimal end-to-end demo of package hub: it opens a
// connection against an in-process fake hub, sends one request/response
// call, and prints what came back. There is
// no network involved — internal/fakehub stands in for a real hub server,
// which is out of scope for this module.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"hubrpc/codec"
	"hubrpc/dispatch"
	"hubrpc/hub"
	"hubrpc/internal/fakehub"
	"hubrpc/loadbalance"
	"hubrpc/middleware"
	"hubrpc/registry"
)

// staticRegistry reports a single fixed endpoint. Stands in for
// registry.EtcdRegistry so this demo can Dial without requiring a running
// etcd instance.
type staticRegistry struct{ endpoint registry.Endpoint }

func (r staticRegistry) Register(methodDescriptor string, endpoint registry.Endpoint, ttl int64) error {
	return nil
}

func (r staticRegistry) Deregister(methodDescriptor, addr string) error { return nil }

func (r staticRegistry) Discover(methodDescriptor string) ([]registry.Endpoint, error) {
	return []registry.Endpoint{r.endpoint}, nil
}

func (r staticRegistry) Watch(methodDescriptor string) <-chan []registry.Endpoint { return nil }

const methodEcho int32 = 1

func main() {
	message := flag.String("message", "hello from hubecho", "message to echo off the fake hub")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	h := fakehub.New()
	h.Handle(methodEcho, func(ctx context.Context, payload []byte) ([]byte, error) {
		var s string
		if err := (codec.JSON{}).Decode(payload, &s); err != nil {
			return nil, err
		}
		return codec.JSON{}.Encode("echo: " + s)
	})

	dispatcher := dispatch.NewMapDispatcher()
	dispatcher.HandleResponse(methodEcho, func(payload []byte) (any, error) {
		var s string
		if err := (codec.JSON{}).Decode(payload, &s); err != nil {
			return nil, err
		}
		return s, nil
	})

	reg := staticRegistry{endpoint: registry.Endpoint{Addr: "in-process", Weight: 1}}
	bal := &loadbalance.RoundRobinBalancer{}

	ctx := context.Background()
	conn, err := hub.Dial(ctx, reg, bal, h, "Hub.Stream", dispatcher, dispatcher,
		hub.WithLogger(logger),
		hub.WithWriterMiddleware(
			middleware.Logging(logger),
			middleware.Timeout(2*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Dispose(ctx)

	value, err := conn.WriteWithResponse(ctx, methodEcho, *message, codec.JSON{})
	if err != nil {
		log.Fatalf("WriteWithResponse: %v", err)
	}
	fmt.Println(value)
}
