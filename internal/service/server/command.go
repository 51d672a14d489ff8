package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"

	api "github.com/oshokin/alarm-scheduler/internal/api/grpc/alarm"
	"github.com/oshokin/alarm-scheduler/internal/clock"
	"github.com/oshokin/alarm-scheduler/internal/config"
	"github.com/oshokin/alarm-scheduler/internal/logger"
	"github.com/oshokin/alarm-scheduler/internal/repository/history"
	"github.com/oshokin/alarm-scheduler/internal/version"
)

// Options controls the alarm-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// HistoryFile overrides the fire journal path from the settings.
	HistoryFile string
	// LogLevel overrides the log level from the settings.
	LogLevel string
}

var (
	// ErrNoServerAddress indicates missing server configuration.
	ErrNoServerAddress = errors.New("no server address configured")
	// errUnknownLogLevel is returned for an invalid log level override.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Run starts the gRPC server and blocks until context is canceled or server stops.
// Loads configuration first, then determines listen address from config or override.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-server")

	// Load configuration first to get server settings.
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	logLevel := settings.LogLevel
	if opts.LogLevel != "" {
		logLevel = opts.LogLevel
	}

	if !logger.SetLevelString(logLevel) {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, logLevel)
	}

	// Use HistoryFile from config unless overridden by command line option.
	historyFile := settings.HistoryFile
	if opts.HistoryFile != "" {
		historyFile = opts.HistoryFile
	}

	// Determine listen address: CLI argument overrides config port extraction.
	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	var journal history.Repository
	if historyFile != "" {
		journal = history.NewFileRepository(historyFile)
	}

	svc := newService(ctx, clock.Real(), journal)
	defer svc.shutdown(ctx)

	if err = svc.createPresets(ctx, settings.Alarms); err != nil {
		return err
	}

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	// Create and configure gRPC server with alarm service.
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(api.UnaryLoggingInterceptor),
		grpc.StreamInterceptor(api.StreamLoggingInterceptor),
	)
	alarmServer := api.NewServer(svc.registry, svc.events)
	api.RegisterAlarmServiceServer(grpcServer, alarmServer)

	logger.InfoKV(ctx, "Alarm server listening",
		"listen_address", listenAddress,
		"version", version.Short(),
		"history_file", historyFile,
		"preset_alarms", len(settings.Alarms),
	)

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		// Watch streams never finish on their own.
		alarmServer.Shutdown()
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "0.0.0.0:8080").
	if override != "" {
		return override, nil
	}

	// Extract port from config address (e.g., "server.example.com:8080" -> ":8080").
	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	// Parse the address to extract port.
	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Return port-only listen address to bind on all interfaces.
	return ":" + port, nil
}
