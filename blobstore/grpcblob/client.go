package grpcblob

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/kurtnitsch/crisp/blobstore"
)

// Client implements blobstore.Store over the Blob gRPC service.
//
// The remote Put is content addressed, so Client.Put only accepts the key the
// bytes hash to; any other key fails with ErrKeyMismatch without touching the
// network.
type Client struct {
	cc     *grpc.ClientConn
	client BlobClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewBlobClient(cc), Timeout: 0}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Put(key string, b []byte) error {
	if err := blobstore.CheckKey(key); err != nil {
		return err
	}
	if key != blobstore.ContentKey(b) {
		return blobstore.ErrKeyMismatch
	}
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Put(ctx, wrapperspb.Bytes(b))
	if err != nil {
		return mapRPC(err)
	}
	if reply.GetValue() != key {
		return blobstore.ErrKeyMismatch
	}
	return nil
}

// PutBytes stores b under its content key and returns the key.
func (c *Client) PutBytes(b []byte) (string, error) {
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Put(ctx, wrapperspb.Bytes(b))
	if err != nil {
		return "", mapRPC(err)
	}
	key := reply.GetValue()
	if key != blobstore.ContentKey(b) {
		return "", blobstore.ErrKeyMismatch
	}
	return key, nil
}

func (c *Client) Get(key string) ([]byte, error) {
	if err := blobstore.CheckKey(key); err != nil {
		return nil, err
	}
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Get(ctx, wrapperspb.String(key))
	if err != nil {
		return nil, mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) Has(key string) bool {
	if blobstore.CheckKey(key) != nil {
		return false
	}
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Has(ctx, wrapperspb.String(key))
	if err != nil {
		return false
	}
	return reply.GetValue()
}

func (c *Client) List() ([]string, error) {
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.List(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, mapRPC(err)
	}
	keys := make([]string, 0, len(reply.GetValues()))
	for _, v := range reply.GetValues() {
		keys = append(keys, v.GetStringValue())
	}
	return keys, nil
}

func (c *Client) ctx() (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), c.Timeout)
}
