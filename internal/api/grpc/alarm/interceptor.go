package alarm

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oshokin/alarm-scheduler/internal/logger"
)

// ActorMetadataKey carries the caller identity ("user@host") in request metadata.
const ActorMetadataKey = "x-alarm-actor"

// unknownActor is logged when the caller did not identify itself.
const unknownActor = "<unknown>"

// ActorFromContext returns the actor sent by the client.
func ActorFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return unknownActor
	}

	values := md.Get(ActorMetadataKey)
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return unknownActor
	}

	return values[0]
}

// UnaryLoggingInterceptor scopes the request logger with the method and actor
// and logs every call at debug level.
func UnaryLoggingInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	ctx = logger.WithFields(ctx, "method", info.FullMethod, "actor", ActorFromContext(ctx))

	resp, err := handler(ctx, req)
	if err != nil {
		logger.DebugKV(ctx, "Call failed", "code", status.Code(err).String(), "error", err)

		return resp, err
	}

	logger.Debug(ctx, "Call handled")

	return resp, nil
}

// StreamLoggingInterceptor does the same for streaming calls.
func StreamLoggingInterceptor(
	srv any,
	stream grpc.ServerStream,
	info *grpc.StreamServerInfo,
	handler grpc.StreamHandler,
) error {
	ctx := logger.WithFields(stream.Context(), "method", info.FullMethod, "actor", ActorFromContext(stream.Context()))

	return handler(srv, &loggingStream{ServerStream: stream, ctx: ctx})
}

// loggingStream overrides the stream context with the scoped logger.
type loggingStream struct {
	grpc.ServerStream

	// ctx carries the scoped logger.
	ctx context.Context //nolint:containedctx // Required to override ServerStream.Context.
}

// Context returns the scoped context.
func (s *loggingStream) Context() context.Context {
	return s.ctx
}
