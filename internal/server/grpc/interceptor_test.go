package grpc

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestServer(s *fakeSessions) *GRPCServer {
	return NewGRPCServer("", nopLogger{}, &fakeLifecycle{}, s, "")
}

func withAuth(value string) context.Context {
	md := metadata.New(map[string]string{"authorization": value})
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestInterceptor_PublicMethod_AllowsWithoutToken(t *testing.T) {
	s := newTestServer(&fakeSessions{})

	info := &grpc.UnaryServerInfo{FullMethod: MethodRegister}
	handlerCalled := false

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		handlerCalled = true
		if _, ok := IdentityFromContext(ctx); ok {
			t.Fatal("anonymous call must not carry an identity")
		}
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled {
		t.Fatal("handler was not called")
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
}

func TestInterceptor_PublicMethod_InvalidTokenIsAnonymous(t *testing.T) {
	s := newTestServer(&fakeSessions{})

	info := &grpc.UnaryServerInfo{FullMethod: MethodLogin}
	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		if _, ok := IdentityFromContext(ctx); ok {
			t.Fatal("invalid token must not yield an identity")
		}
		return nil, nil
	}

	if _, err := s.accessTokenInterceptor(withAuth("Bearer bogus"), nil, info, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInterceptor_Protected(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		auth    string
		authErr error
		want    codes.Code
		called  bool
	}{
		{"missing token", MethodMe, "", nil, codes.Unauthenticated, false},
		{"wrong scheme", MethodMe, "Basic user-token", nil, codes.Unauthenticated, false},
		{"invalid token", MethodChangePassword, "Bearer bogus", nil, codes.Unauthenticated, false},
		{"valid token", MethodMe, "Bearer user-token", nil, codes.OK, true},
		{"missing role", MethodUnlock, "Bearer user-token", nil, codes.PermissionDenied, false},
		{"admin role", MethodUnlock, "Bearer admin-token", nil, codes.OK, true},
		{"store fault", MethodMe, "Bearer user-token", errors.New("db down"), codes.Internal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeSessions{authErr: tt.authErr})

			ctx := context.Background()
			if tt.auth != "" {
				ctx = withAuth(tt.auth)
			}
			called := false
			h := func(ctx context.Context, req interface{}) (interface{}, error) {
				called = true
				if _, ok := IdentityFromContext(ctx); !ok {
					t.Fatal("identity missing in handler context")
				}
				return nil, nil
			}

			_, err := s.accessTokenInterceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: tt.method}, h)
			if status.Code(err) != tt.want {
				t.Fatalf("expected %v, got %v (%v)", tt.want, status.Code(err), err)
			}
			if called != tt.called {
				t.Fatalf("handler called = %v, want %v", called, tt.called)
			}
		})
	}
}
