// Package config defines the settings used by the alarm binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Besides connection parameters the settings may list preset alarms that
// the server creates on startup.
package config
