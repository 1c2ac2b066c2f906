package auth

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewUnaryAuthInterceptor returns a gRPC unary interceptor that extracts and validates
// a Bearer JWT from incoming metadata and injects the Principal into the context.
// Methods listed in allowUnauthenticated bypass authentication.
func NewUnaryAuthInterceptor(issuer *Issuer, allowUnauthenticated ...string) grpc.UnaryServerInterceptor {
	allow := make(map[string]struct{}, len(allowUnauthenticated))
	for _, m := range allowUnauthenticated {
		allow[strings.TrimSpace(m)] = struct{}{}
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := allow[info.FullMethod]; ok {
			return handler(ctx, req)
		}
		p, err := issuer.ParseFromMD(ctx)
		if err != nil {
			return nil, StatusFromError(err)
		}
		return handler(WithPrincipal(ctx, p), req)
	}
}

// StatusFromError maps authentication errors onto gRPC codes.
func StatusFromError(err error) error {
	if errors.Is(err, ErrMissingToken) {
		return status.Errorf(codes.Unauthenticated, "auth error: %v", err)
	}
	return status.Errorf(codes.PermissionDenied, "auth error: %v", err)
}

// RequirePrincipal ensures a principal is present in context.
func RequirePrincipal(ctx context.Context) (*Principal, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing principal")
	}
	return p, nil
}
