package grpccas

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/canbor/canbor"
	"xdao.co/canbor/storage"
	"xdao.co/canbor/storage/testkit"
)

func newBufClient(t *testing.T, cas storage.CAS) *Client {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	RegisterCASServer(srv, &Server{CAS: cas})

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

	return &Client{cc: cc, client: NewCASClient(cc), Timeout: 2 * time.Second}
}

func TestGRPCCAS_RoundTrip(t *testing.T) {
	client := newBufClient(t, storage.NewMemory())

	payload := canbor.Encode(canbor.Map{
		{Key: canbor.Text("msg"), Val: canbor.Text("hello grpccas")},
	})
	id, err := client.Put(payload)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !id.Defined() {
		t.Fatalf("expected defined CID")
	}
	if !client.Has(id) {
		t.Fatalf("Has: expected true")
	}
	got, err := client.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestGRPCCAS_NotFound(t *testing.T) {
	client := newBufClient(t, storage.NewMemory())

	id, err := storage.NewMemory().Put(canbor.Encode(canbor.Text("elsewhere")))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := client.Get(id); !storage.IsNotFound(err) {
		t.Fatalf("Get: %v, want ErrNotFound", err)
	}
	if client.Has(id) {
		t.Fatalf("Has: expected false")
	}
}

func TestGRPCCAS_RejectsNonCanonical(t *testing.T) {
	client := newBufClient(t, storage.NewMemory())

	// Client refuses before dialing the wire.
	if _, err := client.Put([]byte{0x18, 0x00}); !errors.Is(err, storage.ErrNotCanonical) {
		t.Fatalf("client Put: %v, want ErrNotCanonical", err)
	}

	// The server refuses independently of the client-side check.
	srv := &Server{CAS: storage.NewMemory()}
	_, err := srv.Put(context.Background(), wrapperspb.Bytes([]byte{0x18, 0x00}))
	if err == nil {
		t.Fatalf("server Put accepted non-canonical bytes")
	}
	if got := mapRPC(err); !errors.Is(got, storage.ErrNotCanonical) {
		t.Fatalf("mapRPC(%v) = %v, want ErrNotCanonical", err, got)
	}
}

func TestGRPCCAS_NotConnected(t *testing.T) {
	// A zero Client was never dialed; that is a usage error, not a miss.
	var c Client
	data := canbor.Encode(canbor.Text("x"))
	if _, err := c.Put(data); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Put: %v, want ErrNotConnected", err)
	}
	if _, err := c.Put(data); storage.IsNotFound(err) {
		t.Fatalf("Put on unconnected client must not report ErrNotFound")
	}

	id, err := storage.NewMemory().Put(data)
	if err != nil {
		t.Fatalf("seed Put: %v", err)
	}
	if _, err := c.Get(id); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Get: %v, want ErrNotConnected", err)
	}
	if c.Has(id) {
		t.Fatalf("Has on unconnected client must be false")
	}
}

func TestGRPCCAS_Conformance(t *testing.T) {
	// The remote client satisfies the same contract as local backends.
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		return newBufClient(t, storage.NewMemory())
	})
}
