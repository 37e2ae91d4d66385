package service

import (
	"context"
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client calls a remote Instrumenter.
type Client struct {
	conn grpc.ClientConnInterface
	md   *desc.MethodDescriptor
}

// NewClient wraps an existing connection.
func NewClient(conn grpc.ClientConnInterface) (*Client, error) {
	md, err := instrumentMethod()
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, md: md}, nil
}

// Dial connects to target without transport security.
func Dial(target string) (*Client, *grpc.ClientConn, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to %s: %w", target, err)
	}
	c, err := NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return c, conn, nil
}

// Instrument compiles req remotely.
func (c *Client) Instrument(ctx context.Context, req *Request) (*Response, error) {
	in, err := req.toMessage(c.md.GetInputType())
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	out := dynamic.NewMessage(c.md.GetOutputType())
	if err := c.conn.Invoke(ctx, InstrumentMethod, in, out); err != nil {
		return nil, err
	}
	return responseFromMessage(out)
}
