// Package alarm contains core domain types for the alarm scheduler.
//
// It defines Alarm (a named, scheduled wake-up) and Info (the options used
// to create one) together with validation and the minute-based unit helpers
// shared by the registry and the transports.
package alarm
