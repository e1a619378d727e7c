package server

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/keyshift/internal/core/api"
	"github.com/solatis/keyshift/internal/core/config"
	"github.com/solatis/keyshift/internal/rules"
)

func startServer(t *testing.T, cfg *config.Config) (*GRPCServer, *grpc.ClientConn) {
	t.Helper()

	service, err := api.NewTransformService(rules.NewEngine(nil), nil, cfg, nil)
	if err != nil {
		t.Fatalf("NewTransformService failed: %v", err)
	}
	srv, err := NewGRPCServer(cfg.Server, service, nil, nil)
	if err != nil {
		t.Fatalf("NewGRPCServer failed: %v", err)
	}

	lis := bufconn.Listen(1 << 20)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(lis) }()
	t.Cleanup(func() {
		srv.server.Stop()
		<-done
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return srv, conn
}

func TestNewGRPCServer_RequiresAuthenticator(t *testing.T) {
	cfg := config.Default()
	cfg.Server.RequireAuth = true
	service, err := api.NewTransformService(rules.NewEngine(nil), nil, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewGRPCServer(cfg.Server, service, nil, nil); err == nil {
		t.Error("expected error when auth is required without authenticator")
	}
	if _, err := NewGRPCServer(cfg.Server, nil, nil, nil); err == nil {
		t.Error("expected error for nil service")
	}
}

func TestGRPCServer_HealthAndTransform(t *testing.T) {
	_, conn := startServer(t, config.Default())
	ctx := context.Background()

	health := healthpb.NewHealthClient(conn)
	for _, service := range []string{"", api.ServiceName} {
		resp, err := health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		if err != nil {
			t.Fatalf("Check(%q) failed: %v", service, err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Errorf("Check(%q) = %v, want SERVING", service, resp.GetStatus())
		}
	}

	req, err := structpb.NewStruct(map[string]any{
		"source": map[string]any{"a": map[string]any{"b": "c"}},
		"rules":  []any{map[string]any{"source": "a.b", "target": "x.y"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := api.NewTransformClient(conn).Transform(ctx, req)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	got := resp.AsMap()["result"].(map[string]any)["x"].(map[string]any)["y"]
	if got != "c" {
		t.Errorf("result x.y = %v, want c", got)
	}
}

func TestGRPCServer_Shutdown(t *testing.T) {
	srv, conn := startServer(t, config.Default())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	_, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	if status.Code(err) != codes.Unavailable {
		t.Errorf("Check after shutdown code = %v, want Unavailable", status.Code(err))
	}
}

func TestTimeoutInterceptor(t *testing.T) {
	interceptor := timeoutInterceptor(50 * time.Millisecond)

	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, req any) (any, error) {
		deadline, ok := ctx.Deadline()
		if !ok {
			t.Error("handler context has no deadline")
		}
		if time.Until(deadline) > 50*time.Millisecond {
			t.Error("deadline later than configured timeout")
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor returned error: %v", err)
	}
}
