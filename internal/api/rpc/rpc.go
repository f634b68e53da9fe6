// Package rpc holds helpers for gRPC services described by hand with structpb messages.
package rpc

import (
	"context"
	"time"

	"github.com/Domenick1991/spacebooking/internal/api/errs"
	"github.com/Domenick1991/spacebooking/internal/repository"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type Call func(ctx context.Context, req *structpb.Struct) (any, error)

// Unary describes one method taking a Struct request. Service errors are converted to
// gRPC status errors.
func Unary(service, method string, call Call) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + method
	invoke := func(ctx context.Context, req any) (any, error) {
		typed, ok := req.(*structpb.Struct)
		if !ok {
			return nil, status.Error(codes.InvalidArgument, "invalid request type")
		}
		resp, err := call(ctx, typed)
		if err != nil {
			return nil, errs.Status(err)
		}
		return resp, nil
	}

	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := &structpb.Struct{}
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return invoke(ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, req, info, invoke)
		},
	}
}

func String(req *structpb.Struct, key string) string {
	if v := req.GetFields()[key]; v != nil {
		return v.GetStringValue()
	}
	return ""
}

func Int(req *structpb.Struct, key string) int {
	if v := req.GetFields()[key]; v != nil {
		return int(v.GetNumberValue())
	}
	return 0
}

func Page(req *structpb.Struct) repository.Page {
	return repository.Page{Offset: Int(req, "offset"), Limit: Int(req, "limit")}
}

// Required returns the string field or an InvalidArgument status when it is empty.
func Required(req *structpb.Struct, key string) (string, error) {
	v := String(req, key)
	if v == "" {
		return "", status.Errorf(codes.InvalidArgument, "missing %s", key)
	}
	return v, nil
}

func Time(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func Struct(fields map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return s, nil
}

// List wraps items under key. Items must already be structpb-compatible maps.
func List(key string, items []map[string]any) (*structpb.Struct, error) {
	values := make([]any, 0, len(items))
	for _, item := range items {
		values = append(values, item)
	}
	return Struct(map[string]any{key: values, "count": len(items)})
}
