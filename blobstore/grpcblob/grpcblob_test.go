package grpcblob

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/kurtnitsch/crisp/blobstore"
)

func dialTestServer(t *testing.T, store blobstore.Store) *Client {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	RegisterBlobServer(srv, &Server{Store: store})

	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.DialContext(
		context.Background(),
		"bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	t.Cleanup(func() { _ = cc.Close() })

	return &Client{cc: cc, client: NewBlobClient(cc), Timeout: 2 * time.Second}
}

func TestGRPCBlob_LocalFS_RoundTrip(t *testing.T) {
	fs, err := blobstore.NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}
	client := dialTestServer(t, fs)

	payload := []byte("hello grpcblob")
	key, err := client.PutBytes(payload)
	if err != nil {
		t.Fatalf("PutBytes: %v", err)
	}
	if key != blobstore.ContentKey(payload) {
		t.Fatalf("server must return the content key, got %q", key)
	}
	if !client.Has(key) {
		t.Fatalf("Has: expected true")
	}
	got, err := client.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch")
	}

	keys, err := client.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 1 || keys[0] != key {
		t.Fatalf("List = %v, want [%s]", keys, key)
	}
}

func TestGRPCBlob_ErrorMapping(t *testing.T) {
	client := dialTestServer(t, blobstore.NewMemory())

	missing := blobstore.ContentKey([]byte("never stored"))
	if _, err := client.Get(missing); !blobstore.IsNotFound(err) {
		t.Fatalf("Get missing: want ErrNotFound, got %v", err)
	}
	if client.Has(missing) {
		t.Fatalf("Has missing: want false")
	}
	if _, err := client.Get("../escape"); err != blobstore.ErrInvalidKey {
		t.Fatalf("Get invalid key: want ErrInvalidKey, got %v", err)
	}
}

func TestGRPCBlob_PutEnforcesContentKey(t *testing.T) {
	client := dialTestServer(t, blobstore.NewMemory())

	b := []byte("content addressed")
	if err := client.Put(blobstore.ContentKey(b), b); err != nil {
		t.Fatalf("Put with matching key: %v", err)
	}
	if err := client.Put("arbitrary-key", b); err != blobstore.ErrKeyMismatch {
		t.Fatalf("Put with foreign key: want ErrKeyMismatch, got %v", err)
	}
}
