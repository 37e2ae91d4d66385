package service

import (
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/funvibe/tlua/internal/cache"
	"github.com/funvibe/tlua/internal/compiler"
)

func startServer(t *testing.T, c *compiler.Compiler) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, lis, &Server{Compiler: c}) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve: %v", err)
		}
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	client, err := NewClient(conn)
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestDescriptor(t *testing.T) {
	sd, err := Descriptor()
	if err != nil {
		t.Fatal(err)
	}
	if sd.GetFullyQualifiedName() != ServiceName {
		t.Errorf("got %s", sd.GetFullyQualifiedName())
	}
	if _, err := instrumentMethod(); err != nil {
		t.Error(err)
	}

	files, err := Files()
	if err != nil {
		t.Fatal(err)
	}
	d, err := files.FindDescriptorByName(protoreflect.FullName(ServiceName))
	if err != nil {
		t.Fatalf("service not in the reflection registry: %v", err)
	}
	if _, ok := d.(protoreflect.ServiceDescriptor); !ok {
		t.Errorf("got %T", d)
	}
}

func TestInstrument(t *testing.T) {
	client := startServer(t, compiler.New())
	ctx := context.Background()

	resp, err := client.Instrument(ctx, &Request{
		Name:   "f.tlua",
		Source: "local function f(x :: number) :: string return x end\n",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", resp.Diagnostics)
	}
	if !strings.Contains(resp.Output, "types.number(x)") || !strings.Contains(resp.Output, "types.string") {
		t.Errorf("checks missing from output:\n%s", resp.Output)
	}
	if resp.UnitID == "" {
		t.Error("no unit id")
	}

	again, err := client.Instrument(ctx, &Request{Name: "g.tlua", Source: "local function f(x :: number) :: string return x end\n"})
	if err != nil {
		t.Fatal(err)
	}
	if again.UnitID != resp.UnitID {
		t.Error("same source and options gave a different unit id")
	}
}

func TestInstrumentDisableChecks(t *testing.T) {
	client := startServer(t, compiler.New())
	resp, err := client.Instrument(context.Background(), &Request{
		Source:        "local n :: number = 1\n",
		DisableChecks: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(resp.Output, "types.") || strings.Contains(resp.Output, "::") {
		t.Errorf("got %q", resp.Output)
	}
}

func TestInstrumentDiagnostics(t *testing.T) {
	client := startServer(t, compiler.New())
	resp, err := client.Instrument(context.Background(), &Request{Source: "local x = \n"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Diagnostics) == 0 {
		t.Fatal("expected diagnostics")
	}
	d := resp.Diagnostics[0]
	if d.Code == "" || d.Line == 0 || d.Message == "" {
		t.Errorf("incomplete diagnostic %+v", d)
	}
	if resp.Output != "" {
		t.Errorf("got output %q", resp.Output)
	}
}

func TestInstrumentCached(t *testing.T) {
	store, err := cache.Open(filepath.Join(t.TempDir(), "units.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	c := compiler.New()
	c.Cache = store

	client := startServer(t, c)
	req := &Request{Name: "a.tlua", Source: "local s :: string = \"x\"\n"}
	first, err := client.Instrument(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := client.Instrument(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached || !second.Cached {
		t.Errorf("cached flags: first=%t second=%t", first.Cached, second.Cached)
	}
	if first.Output != second.Output {
		t.Errorf("outputs differ:\n%s\n---\n%s", first.Output, second.Output)
	}
}
