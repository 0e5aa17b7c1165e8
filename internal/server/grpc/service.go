package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/account"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

const ServiceName = "gophauth.v1.Account"

// Full method names, as seen by interceptors.
const (
	MethodRegister       = "/" + ServiceName + "/Register"
	MethodConfirm        = "/" + ServiceName + "/Confirm"
	MethodUnlock         = "/" + ServiceName + "/Unlock"
	MethodResetPassword  = "/" + ServiceName + "/ResetPassword"
	MethodChangePassword = "/" + ServiceName + "/ChangePassword"
	MethodLogin          = "/" + ServiceName + "/Login"
	MethodRefresh        = "/" + ServiceName + "/Refresh"
	MethodLogout         = "/" + ServiceName + "/Logout"
	MethodMe             = "/" + ServiceName + "/Me"
)

// Lifecycle is the account facade.
type Lifecycle interface {
	Register(ctx context.Context, req account.RegistrationRequest) (account.Response, error)
	Confirm(ctx context.Context, req account.ConfirmationRequest) (account.Response, error)
	Unlock(ctx context.Context, req account.UnlockRequest) (account.Response, error)
	ResetPassword(ctx context.Context, req account.ResetPasswordRequest) (account.Response, error)
	ChangePassword(ctx context.Context, req account.ChangePasswordRequest) (account.Response, error)
}

type Sessions interface {
	Login(ctx context.Context, email, plain string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (*auth.Identity, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
}

// AccountServer is the server side of gophauth.v1.Account.
type AccountServer interface {
	Register(context.Context, *RegisterRequest) (*LifecycleReply, error)
	Confirm(context.Context, *ConfirmRequest) (*LifecycleReply, error)
	Unlock(context.Context, *UnlockRequest) (*LifecycleReply, error)
	ResetPassword(context.Context, *ResetPasswordRequest) (*LifecycleReply, error)
	ChangePassword(context.Context, *ChangePasswordRequest) (*LifecycleReply, error)
	Login(context.Context, *LoginRequest) (*TokenReply, error)
	Refresh(context.Context, *RefreshRequest) (*TokenReply, error)
	Logout(context.Context, *LogoutRequest) (*Empty, error)
	Me(context.Context, *Empty) (*IdentityReply, error)
}

var accountServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AccountServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", AccountServer.Register),
		unary("Confirm", AccountServer.Confirm),
		unary("Unlock", AccountServer.Unlock),
		unary("ResetPassword", AccountServer.ResetPassword),
		unary("ChangePassword", AccountServer.ChangePassword),
		unary("Login", AccountServer.Login),
		unary("Refresh", AccountServer.Refresh),
		unary("Logout", AccountServer.Logout),
		unary("Me", AccountServer.Me),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophauth/v1/account",
}

// RegisterAccountServer attaches srv to s.
func RegisterAccountServer(s grpc.ServiceRegistrar, srv AccountServer) {
	s.RegisterService(&accountServiceDesc, srv)
}

func unary[Req, Resp any](name string, call func(AccountServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AccountServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AccountServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

type validatable interface{ Validate() error }

func validate(req validatable) error {
	if err := req.Validate(); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

func (s *GRPCServer) Register(ctx context.Context, req *RegisterRequest) (*LifecycleReply, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	resp, err := s.lifecycle.Register(ctx, account.RegistrationRequest{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	})
	return s.lifecycleReply(ctx, resp, err)
}

func (s *GRPCServer) Confirm(ctx context.Context, req *ConfirmRequest) (*LifecycleReply, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	resp, err := s.lifecycle.Confirm(ctx, account.ConfirmationRequest{TokenID: req.TokenID, Token: req.Token})
	return s.lifecycleReply(ctx, resp, err)
}

func (s *GRPCServer) Unlock(ctx context.Context, req *UnlockRequest) (*LifecycleReply, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	resp, err := s.lifecycle.Unlock(ctx, account.UnlockRequest{UserID: req.UserID})
	return s.lifecycleReply(ctx, resp, err)
}

func (s *GRPCServer) ResetPassword(ctx context.Context, req *ResetPasswordRequest) (*LifecycleReply, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	resp, err := s.lifecycle.ResetPassword(ctx, account.ResetPasswordRequest{Email: req.Email})
	return s.lifecycleReply(ctx, resp, err)
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *ChangePasswordRequest) (*LifecycleReply, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	resp, err := s.lifecycle.ChangePassword(ctx, account.ChangePasswordRequest{
		UserID:         id.UserID,
		Email:          req.Email,
		ActualPassword: req.ActualPassword,
		NewPassword:    req.NewPassword,
	})
	return s.lifecycleReply(ctx, resp, err)
}

func (s *GRPCServer) Login(ctx context.Context, req *LoginRequest) (*TokenReply, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	pair, err := s.sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.sessionError(ctx, err)
	}
	return tokenReply(pair), nil
}

func (s *GRPCServer) Refresh(ctx context.Context, req *RefreshRequest) (*TokenReply, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	pair, err := s.sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.sessionError(ctx, err)
	}
	return tokenReply(pair), nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *LogoutRequest) (*Empty, error) {
	access, _ := accessTokenFromContext(ctx)
	if err := s.sessions.Logout(ctx, access, req.RefreshToken); err != nil {
		return nil, s.sessionError(ctx, err)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) Me(ctx context.Context, _ *Empty) (*IdentityReply, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	reply := &IdentityReply{UserID: id.UserID, Email: id.Email, Roles: make([]Role, 0, len(id.Roles))}
	for _, r := range id.Roles {
		reply.Roles = append(reply.Roles, Role{ID: r.ID, Name: r.Name})
	}
	return reply, nil
}

func (s *GRPCServer) lifecycleReply(ctx context.Context, resp account.Response, err error) (*LifecycleReply, error) {
	if err != nil {
		s.logger.Error(ctx, "lifecycle fault", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	return newLifecycleReply(resp), nil
}

func (s *GRPCServer) sessionError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, "refresh token expired")
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "invalid token")
	default:
		s.logger.Error(ctx, "session fault", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func tokenReply(p *services.TokenPair) *TokenReply {
	return &TokenReply{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		AccessExpiresAt:  p.AccessExpiresAt,
		RefreshExpiresAt: p.RefreshExpiresAt,
	}
}
