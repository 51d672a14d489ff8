package alarm

import (
	"context"
	"errors"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/logger"
	"github.com/oshokin/alarm-scheduler/internal/notifier"
)

// Service abstracts the registry operations the transport layer depends on.
type Service interface {
	Create(ctx context.Context, name string, info *domain.Info) error
	Get(ctx context.Context, name string) (*domain.Alarm, bool)
	GetAll(ctx context.Context) []*domain.Alarm
	Clear(ctx context.Context, name string) bool
	ClearAll(ctx context.Context) int
}

// Subscriber lets the transport listen for fired alarms.
type Subscriber interface {
	AddListener(name string, l notifier.Listener) (remove func())
}

// DefaultWatchBuffer is the number of fired alarms queued per watcher.
const DefaultWatchBuffer = 64

// Server implements the AlarmService gRPC API.
type Server struct {
	// service provides the registry operations.
	service Service
	// events is the source of fired alarms for WatchAlarms.
	events Subscriber
	// watchBuffer is the per-watcher queue size.
	watchBuffer int
	// done is closed by Shutdown to end open watch streams.
	done chan struct{}
	// shutdownOnce guards done.
	shutdownOnce sync.Once
}

var _ AlarmServiceServer = (*Server)(nil)

// Option configures the server.
type Option func(*Server)

// WithWatchBuffer sets the per-watcher queue size.
func WithWatchBuffer(size int) Option {
	return func(s *Server) {
		if size > 0 {
			s.watchBuffer = size
		}
	}
}

// NewServer wires the provided service and event source into a gRPC handler.
// events may be nil, in which case WatchAlarms is unavailable.
func NewServer(service Service, events Subscriber, opts ...Option) *Server {
	s := &Server{
		service:     service,
		events:      events,
		watchBuffer: DefaultWatchBuffer,
		done:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CreateAlarm schedules an alarm, replacing any alarm with the same name.
func (s *Server) CreateAlarm(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	name, info, err := FromProtoCreateRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err = s.service.Create(ctx, name, info); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}

		logger.ErrorKV(ctx, "Failed to create alarm", "alarm", name, "error", err)

		return nil, status.Error(codes.Internal, "unable to create alarm")
	}

	return new(emptypb.Empty), nil
}

// GetAlarm returns {alarm: ...} or {alarm: null} when no such alarm exists.
func (s *Server) GetAlarm(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	alarm, ok := s.service.Get(ctx, req.GetValue())
	if !ok {
		return ToProtoGetResponse(nil), nil
	}

	return ToProtoGetResponse(alarm), nil
}

// GetAllAlarms lists every registered alarm.
func (s *Server) GetAllAlarms(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	return ToProtoAlarmList(s.service.GetAll(ctx)), nil
}

// ClearAlarm removes an alarm and reports whether it existed.
func (s *Server) ClearAlarm(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	return wrapperspb.Bool(s.service.Clear(ctx, req.GetValue())), nil
}

// ClearAllAlarms removes every alarm and reports how many were removed.
func (s *Server) ClearAllAlarms(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	return wrapperspb.Int64(int64(s.service.ClearAll(ctx))), nil
}

// Shutdown ends every open watch stream so that a graceful stop
// does not wait for watchers to disconnect. Unary calls are unaffected.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.done)
	})
}

// WatchAlarms streams alarms as they fire until the client goes away.
// Headers are sent once the subscription is in place, so a client that has
// received them will not miss later fires. A watcher that falls behind
// loses alarms instead of slowing down the registry.
func (s *Server) WatchAlarms(_ *emptypb.Empty, stream grpc.ServerStream) error {
	if s.events == nil {
		return status.Error(codes.Unimplemented, "alarm events are not available")
	}

	ctx := logger.WithName(stream.Context(), "watch")
	queue := make(chan *domain.Alarm, s.watchBuffer)

	remove := s.events.AddListener("grpc-watch", func(ctx context.Context, alarm *domain.Alarm) {
		select {
		case queue <- alarm:
		default:
			logger.WarnKV(ctx, "Watcher is falling behind, dropping alarm", "alarm", alarm.Name)
		}
	})
	defer remove()

	if err := stream.SendHeader(metadata.MD{}); err != nil {
		return err
	}

	logger.Debug(ctx, "Watcher subscribed")

	for {
		select {
		case <-ctx.Done():
			logger.Debug(ctx, "Watcher left")

			return nil
		case <-s.done:
			logger.Debug(ctx, "Server is shutting down, closing watcher")

			return nil
		case alarm := <-queue:
			if err := stream.SendMsg(ToProtoAlarm(alarm)); err != nil {
				return err
			}
		}
	}
}
