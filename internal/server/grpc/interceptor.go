package grpc

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
)

type ctxKey string

const (
	identityKey    ctxKey = "identity"
	accessTokenKey ctxKey = "accessToken"
)

// protectedMethods lists methods that need an identity, mapped to the role
// they additionally require ("" for none).
func protectedMethods(adminRole string) map[string]string {
	return map[string]string{
		MethodChangePassword: "",
		MethodMe:             "",
		MethodUnlock:         adminRole,
	}
}

// accessTokenInterceptor resolves the bearer token in the "authorization"
// metadata. Public methods run anonymously when it is missing or invalid.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	role, protected := s.protected[info.FullMethod]

	token := bearerFromMetadata(ctx)
	if token == "" {
		if protected {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}
		return handler(ctx, req)
	}

	identity, err := s.sessions.Authenticate(ctx, token)
	switch {
	case err == nil:
		ctx = context.WithValue(ctx, identityKey, identity)
		ctx = context.WithValue(ctx, accessTokenKey, token)
	case errors.Is(err, common.ErrInvalidToken):
		if protected {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
	default:
		s.logger.Error(ctx, "authenticate", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	if role != "" && !identity.HasRole(role) {
		return nil, status.Error(codes.PermissionDenied, "insufficient role")
	}

	return handler(ctx, req)
}

func bearerFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(strings.ToLower(common.AuthorizationHeaderName))
	if len(values) == 0 {
		return ""
	}
	token, _ := auth.BearerToken(values[0])
	return token
}

// IdentityFromContext returns the identity attached by the interceptor.
func IdentityFromContext(ctx context.Context) (*auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*auth.Identity)
	return id, ok && id != nil
}

func accessTokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(accessTokenKey).(string)
	return t, ok
}
