// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a sane console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithFields),
//   - level configuration and parsing utilities,
//   - context-aware helpers (InfoKV, ErrorKV, etc.),
//   - a WithLevel option and EnableDebug for per-command verbosity.
//
// The registry, the notifier and the gRPC layer take a context and extract
// the logger from it, so every alarm event is logged with its scope.
package logger
