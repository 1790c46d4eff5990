// Package rpc builds gRPC service descriptors for plain Go request/response structs. Messages
// travel as JSON under the "json" content-subtype (content-type application/grpc+json).
package rpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype clients must use, e.g. grpc.CallContentSubtype(rpc.CodecName).
const CodecName = "json"

// Package is the gRPC package prefix of every service served by this backend.
const Package = "registration.v1"

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec marshals messages as JSON.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (Codec) Name() string { return CodecName }

// FullMethod returns the gRPC full method name for a method of service, e.g.
// "/registration.v1.AuthService/Login".
func FullMethod(service, method string) string {
	return "/" + Package + "." + service + "/" + method
}

// Unary returns the descriptor of a unary method. call is a method expression on the server
// interface, e.g. AuthServiceServer.Login.
func Unary[S any, Req any, Resp any](service, method string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := FullMethod(service, method)
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Service returns a descriptor for service with the given methods. handlerType is a nil pointer
// to the server interface, e.g. (*AuthServiceServer)(nil); grpc.Server.RegisterService checks
// implementations against it.
func Service(service string, handlerType any, methods ...grpc.MethodDesc) *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: Package + "." + service,
		HandlerType: handlerType,
		Methods:     methods,
		Streams:     []grpc.StreamDesc{},
		Metadata:    service + ".json",
	}
}
