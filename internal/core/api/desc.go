package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

/*
 * Service descriptor for keyshift.v1.TransformService.
 *
 * Messages are the well-known Struct and Empty types, so the service needs
 * no generated code: documents and rule sets are JSON-shaped data already.
 * The layout mirrors what protoc-gen-go-grpc emits for
 *
 *   service TransformService {
 *     rpc Transform(google.protobuf.Struct) returns (google.protobuf.Struct);
 *     rpc PutMapping(google.protobuf.Struct) returns (google.protobuf.Struct);
 *     rpc GetMapping(google.protobuf.Struct) returns (google.protobuf.Struct);
 *     rpc DeleteMapping(google.protobuf.Struct) returns (google.protobuf.Empty);
 *     rpc ListMappings(google.protobuf.Empty) returns (google.protobuf.Struct);
 *   }
 */

const ServiceName = "keyshift.v1.TransformService"

const (
	TransformFullMethod     = "/" + ServiceName + "/Transform"
	PutMappingFullMethod    = "/" + ServiceName + "/PutMapping"
	GetMappingFullMethod    = "/" + ServiceName + "/GetMapping"
	DeleteMappingFullMethod = "/" + ServiceName + "/DeleteMapping"
	ListMappingsFullMethod  = "/" + ServiceName + "/ListMappings"
)

// TransformServer is the server API for keyshift.v1.TransformService.
type TransformServer interface {
	Transform(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PutMapping(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMapping(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteMapping(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	ListMappings(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterTransformServer registers srv with s.
func RegisterTransformServer(s grpc.ServiceRegistrar, srv TransformServer) {
	s.RegisterService(&TransformServiceDesc, srv)
}

// TransformServiceDesc is the grpc.ServiceDesc for TransformService.
var TransformServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TransformServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Transform", TransformFullMethod, newStruct, func(s TransformServer, ctx context.Context, req any) (any, error) {
			return s.Transform(ctx, req.(*structpb.Struct))
		}),
		unaryMethod("PutMapping", PutMappingFullMethod, newStruct, func(s TransformServer, ctx context.Context, req any) (any, error) {
			return s.PutMapping(ctx, req.(*structpb.Struct))
		}),
		unaryMethod("GetMapping", GetMappingFullMethod, newStruct, func(s TransformServer, ctx context.Context, req any) (any, error) {
			return s.GetMapping(ctx, req.(*structpb.Struct))
		}),
		unaryMethod("DeleteMapping", DeleteMappingFullMethod, newStruct, func(s TransformServer, ctx context.Context, req any) (any, error) {
			return s.DeleteMapping(ctx, req.(*structpb.Struct))
		}),
		unaryMethod("ListMappings", ListMappingsFullMethod, newEmpty, func(s TransformServer, ctx context.Context, req any) (any, error) {
			return s.ListMappings(ctx, req.(*emptypb.Empty))
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "keyshift/v1/transform.proto",
}

func newStruct() any { return new(structpb.Struct) }
func newEmpty() any  { return new(emptypb.Empty) }

func unaryMethod(name, fullMethod string, newReq func() any, call func(TransformServer, context.Context, any) (any, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TransformServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(TransformServer), ctx, req)
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// TransformClient is the client API for keyshift.v1.TransformService.
type TransformClient struct {
	cc grpc.ClientConnInterface
}

func NewTransformClient(cc grpc.ClientConnInterface) *TransformClient {
	return &TransformClient{cc: cc}
}

func (c *TransformClient) Transform(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, TransformFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TransformClient) PutMapping(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, PutMappingFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TransformClient) GetMapping(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetMappingFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TransformClient) DeleteMapping(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, DeleteMappingFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TransformClient) ListMappings(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListMappingsFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
