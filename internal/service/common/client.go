//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	api "github.com/oshokin/alarm-scheduler/internal/api/grpc/alarm"
	"github.com/oshokin/alarm-scheduler/internal/config"
	domain "github.com/oshokin/alarm-scheduler/internal/domain/alarm"
)

// Client wraps the gRPC AlarmService with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the alarm server.
	conn grpc.ClientConnInterface
	// closer releases conn.
	closer io.Closer

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// actor is sent with every call for the server's audit log.
	actor string
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for unary calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor identifies the caller to the server, see DetectActor.
func WithActor(actor string) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errInfoRequired is returned when CreateAlarm gets nil options.
	errInfoRequired = errors.New("alarm info must be provided")
	// errHandlerRequired is returned when Watch gets no handler.
	errHandlerRequired = errors.New("handler must be provided")
)

// Dial establishes a gRPC connection to the alarm server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	// Use the non-context NewClient API recommended by grpc-go
	// (DialContext is deprecated as of grpc-go v1.60+).
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial alarm server: %w", err)
	}

	client := NewClient(conn, opts...)
	client.closer = conn

	return client, nil
}

// NewClient wraps an existing connection. The caller keeps ownership of conn.
func NewClient(conn grpc.ClientConnInterface, opts ...Option) *Client {
	client := &Client{
		conn:        conn,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Close releases the underlying gRPC connection if Dial created it.
func (c *Client) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}

	return c.closer.Close()
}

// CreateAlarm schedules an alarm on the server.
func (c *Client) CreateAlarm(ctx context.Context, name string, info *domain.Info) error {
	if info == nil {
		return errInfoRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	err := c.conn.Invoke(callCtx, api.CreateAlarmFullMethod, api.ToProtoCreateRequest(name, info), new(emptypb.Empty))
	if err != nil {
		return fmt.Errorf("create alarm: %w", err)
	}

	return nil
}

// GetAlarm returns the alarm registered under name, or nil if there is none.
func (c *Client) GetAlarm(ctx context.Context, name string) (*domain.Alarm, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp := new(structpb.Struct)
	if err := c.conn.Invoke(callCtx, api.GetAlarmFullMethod, wrapperspb.String(name), resp); err != nil {
		return nil, fmt.Errorf("get alarm: %w", err)
	}

	alarm, err := api.FromProtoGetResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("decode alarm: %w", err)
	}

	return alarm, nil
}

// GetAllAlarms lists every alarm registered on the server.
func (c *Client) GetAllAlarms(ctx context.Context) ([]*domain.Alarm, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp := new(structpb.ListValue)
	if err := c.conn.Invoke(callCtx, api.GetAllAlarmsFullMethod, new(emptypb.Empty), resp); err != nil {
		return nil, fmt.Errorf("get all alarms: %w", err)
	}

	alarms, err := api.FromProtoAlarmList(resp)
	if err != nil {
		return nil, fmt.Errorf("decode alarms: %w", err)
	}

	return alarms, nil
}

// ClearAlarm removes an alarm and reports whether it existed.
func (c *Client) ClearAlarm(ctx context.Context, name string) (bool, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp := new(wrapperspb.BoolValue)
	if err := c.conn.Invoke(callCtx, api.ClearAlarmFullMethod, wrapperspb.String(name), resp); err != nil {
		return false, fmt.Errorf("clear alarm: %w", err)
	}

	return resp.GetValue(), nil
}

// ClearAllAlarms removes every alarm and returns how many were removed.
func (c *Client) ClearAllAlarms(ctx context.Context) (int, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp := new(wrapperspb.Int64Value)
	if err := c.conn.Invoke(callCtx, api.ClearAllAlarmsFullMethod, new(emptypb.Empty), resp); err != nil {
		return 0, fmt.Errorf("clear all alarms: %w", err)
	}

	return int(resp.GetValue()), nil
}

// Watcher receives fired alarms from the server.
type Watcher struct {
	// stream is the server stream of alarm structs.
	stream grpc.ClientStream
	// cancel ends the stream.
	cancel context.CancelFunc
}

// Watch subscribes to fired alarms. It returns once the server has
// registered the subscription, so alarms fired afterwards are not missed.
// The stream has no call timeout; it ends when ctx is done or Close is called.
func (c *Client) Watch(ctx context.Context) (*Watcher, error) {
	streamCtx, cancel := context.WithCancel(c.withActor(ctx))

	stream, err := c.conn.NewStream(streamCtx, api.WatchAlarmsStreamDesc, api.WatchAlarmsFullMethod)
	if err != nil {
		cancel()

		return nil, fmt.Errorf("watch alarms: %w", err)
	}

	if err = stream.SendMsg(new(emptypb.Empty)); err != nil {
		cancel()

		return nil, fmt.Errorf("watch alarms: %w", err)
	}

	if err = stream.CloseSend(); err != nil {
		cancel()

		return nil, fmt.Errorf("watch alarms: %w", err)
	}

	if _, err = stream.Header(); err != nil {
		cancel()

		return nil, fmt.Errorf("watch alarms: %w", err)
	}

	return &Watcher{
		stream: stream,
		cancel: cancel,
	}, nil
}

// Recv blocks until the next alarm fires. It returns io.EOF when the server ends the stream.
func (w *Watcher) Recv() (*domain.Alarm, error) {
	msg := new(structpb.Struct)
	if err := w.stream.RecvMsg(msg); err != nil {
		return nil, err
	}

	alarm, err := api.FromProtoAlarm(msg)
	if err != nil {
		return nil, fmt.Errorf("decode alarm: %w", err)
	}

	return alarm, nil
}

// Close ends the subscription.
func (w *Watcher) Close() {
	w.cancel()
}

// WatchAlarms calls handler for every fired alarm until ctx is done,
// the server ends the stream, or handler returns an error.
func (c *Client) WatchAlarms(ctx context.Context, handler func(*domain.Alarm) error) error {
	if handler == nil {
		return errHandlerRequired
	}

	watcher, err := c.Watch(ctx)
	if err != nil {
		return err
	}
	defer watcher.Close()

	for {
		alarm, err := watcher.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("receive alarm: %w", err)
		}

		if err = handler(alarm); err != nil {
			return err
		}
	}
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = c.withActor(ctx)

	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

// withActor attaches the actor metadata when one is configured.
func (c *Client) withActor(ctx context.Context) context.Context {
	if c.actor == "" {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx, api.ActorMetadataKey, c.actor)
}
