// Package server runs the alarm-server process: it loads the settings,
// builds the registry with its listeners, creates preset alarms and serves
// the gRPC API until the context is cancelled.
package server
