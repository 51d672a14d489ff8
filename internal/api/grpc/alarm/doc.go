// Package alarm implements the gRPC transport for the alarm scheduler.
//
// The service is described by a hand-written grpc.ServiceDesc whose messages
// are protobuf well-known types (Struct, ListValue, wrappers and Empty), so
// clients in any language can call it without generated stubs. The package
// adapts those messages to domain types and calls into a business-service
// interface.
package alarm
