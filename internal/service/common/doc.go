// Package common holds helpers shared by several services.
//
// It provides a gRPC client for the alarm service with per-call timeouts
// and a watch stream for fired alarms.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
