package grpc

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// AccountClient calls gophauth.v1.Account over an existing connection.
type AccountClient struct {
	cc grpc.ClientConnInterface
}

func NewAccountClient(cc grpc.ClientConnInterface) *AccountClient {
	return &AccountClient{cc: cc}
}

// WithAccessToken attaches the bearer token to outgoing calls made with ctx.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx,
		strings.ToLower(common.AuthorizationHeaderName), common.BearerScheme+" "+token)
}

func call[Resp any](ctx context.Context, c *AccountClient, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AccountClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*LifecycleReply, error) {
	return call[LifecycleReply](ctx, c, MethodRegister, in, opts)
}

func (c *AccountClient) Confirm(ctx context.Context, in *ConfirmRequest, opts ...grpc.CallOption) (*LifecycleReply, error) {
	return call[LifecycleReply](ctx, c, MethodConfirm, in, opts)
}

func (c *AccountClient) Unlock(ctx context.Context, in *UnlockRequest, opts ...grpc.CallOption) (*LifecycleReply, error) {
	return call[LifecycleReply](ctx, c, MethodUnlock, in, opts)
}

func (c *AccountClient) ResetPassword(ctx context.Context, in *ResetPasswordRequest, opts ...grpc.CallOption) (*LifecycleReply, error) {
	return call[LifecycleReply](ctx, c, MethodResetPassword, in, opts)
}

func (c *AccountClient) ChangePassword(ctx context.Context, in *ChangePasswordRequest, opts ...grpc.CallOption) (*LifecycleReply, error) {
	return call[LifecycleReply](ctx, c, MethodChangePassword, in, opts)
}

func (c *AccountClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*TokenReply, error) {
	return call[TokenReply](ctx, c, MethodLogin, in, opts)
}

func (c *AccountClient) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*TokenReply, error) {
	return call[TokenReply](ctx, c, MethodRefresh, in, opts)
}

func (c *AccountClient) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*Empty, error) {
	return call[Empty](ctx, c, MethodLogout, in, opts)
}

func (c *AccountClient) Me(ctx context.Context, opts ...grpc.CallOption) (*IdentityReply, error) {
	return call[IdentityReply](ctx, c, MethodMe, &Empty{}, opts)
}
