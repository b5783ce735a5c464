package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"venue-approval-backend/internal/logger"
)

// AccessLogUnary logs one line per unary call. It must run after the auth
// interceptor so the caller's organization is known.
func AccessLogUnary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logCall(ctx, info.FullMethod, start, err)
		return resp, err
	}
}

// AccessLogStream logs one line per stream when it ends.
func AccessLogStream() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		logCall(ss.Context(), info.FullMethod, start, err)
		return err
	}
}

func logCall(ctx context.Context, method string, start time.Time, err error) {
	orgID, _ := GetOrganizationIDFromContext(ctx)
	args := []any{
		"method", method,
		"code", status.Code(err).String(),
		"latency", time.Since(start),
	}
	if orgID != "" {
		args = append(args, "orgID", orgID)
	}
	if err != nil {
		logger.WarnContext(ctx, "grpc request", append(args, "error", err)...)
		return
	}
	logger.DebugContext(ctx, "grpc request", args...)
}
