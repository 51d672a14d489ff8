// Package history implements the fire journal.
//
// The FileRepository appends one protojson record per fired alarm to a
// JSON-lines file. The journal is an audit trail only: alarms are never
// restored from it.
package history
