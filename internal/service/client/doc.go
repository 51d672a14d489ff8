// Package client implements the alarmctl operations.
//
// Each operation talks to the alarm server through an AlarmClient and writes
// a human-readable result to the provided writer. Run resolves the server
// address from settings, identifies the caller and dials the server.
package client
