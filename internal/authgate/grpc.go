// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package authgate

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// metadataKey is the incoming metadata key holding "Bearer <token>".
const metadataKey = "authorization"

// UnaryServerInterceptor applies the gate to unary gRPC calls. Methods
// registered with WithPublicMethods pass through untouched.
func (g *Gate) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := g.public[info.FullMethod]; ok {
			return handler(ctx, req)
		}

		claims, err := g.authenticate(ctx, TransportGRPC, incomingAuthorization(ctx))
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}
		return handler(WithClaims(ctx, claims), req)
	}
}

// StreamServerInterceptor applies the gate to streaming gRPC calls.
func (g *Gate) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if _, ok := g.public[info.FullMethod]; ok {
			return handler(srv, ss)
		}

		ctx := ss.Context()
		claims, err := g.authenticate(ctx, TransportGRPC, incomingAuthorization(ctx))
		if err != nil {
			return status.Error(codes.Unauthenticated, "unauthorized")
		}
		return handler(srv, &claimsStream{ServerStream: ss, ctx: WithClaims(ctx, claims)})
	}
}

func incomingAuthorization(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(metadataKey); len(values) > 0 {
		return values[0]
	}
	return ""
}

// claimsStream overrides the stream context so handlers see the claims.
type claimsStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *claimsStream) Context() context.Context {
	return s.ctx
}
