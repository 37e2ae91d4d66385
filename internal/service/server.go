package service

import (
	"context"
	"fmt"
	"log"
	"net"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
	v1reflectiongrpc "google.golang.org/grpc/reflection/grpc_reflection_v1"

	"github.com/funvibe/tlua/internal/compiler"
)

// defaultUnitName names requests that carry no name.
const defaultUnitName = "<request>"

// Server implements Instrumenter on top of a Compiler. The compiler's
// options are the defaults; a request may only turn checks off.
type Server struct {
	Compiler *compiler.Compiler
	// Logger, when set, gets one line per request.
	Logger *log.Logger
}

// Instrument compiles one request.
func (s *Server) Instrument(ctx context.Context, req *Request) *Response {
	c := *s.Compiler
	if req.DisableChecks {
		c.Options.Checks = false
	}
	name := req.Name
	if name == "" {
		name = defaultUnitName
	}

	res := c.Compile(ctx, name, req.Source)
	resp := &Response{UnitID: res.UnitID, Output: res.Output, Cached: res.Cached}
	for _, d := range res.Diagnostics {
		resp.Diagnostics = append(resp.Diagnostics, fromDiagnostic(d))
	}

	if s.Logger != nil {
		if res.CacheErr != nil {
			s.Logger.Printf("cache: %v", res.CacheErr)
		}
		s.Logger.Printf("instrument %s unit=%s diagnostics=%d cached=%t",
			name, res.UnitID, len(resp.Diagnostics), res.Cached)
	}
	return resp
}

// Register adds the Instrumenter service to gs.
func (s *Server) Register(gs *grpc.Server) error {
	sd, err := Descriptor()
	if err != nil {
		return err
	}

	serviceDesc := &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*interface{})(nil),
		Metadata:    sd.GetFile().GetName(),
	}
	for _, method := range sd.GetMethods() {
		md := method
		serviceDesc.Methods = append(serviceDesc.Methods, grpc.MethodDesc{
			MethodName: md.GetName(),
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				return srv.(*Server).handleUnary(ctx, md, dec, interceptor)
			},
		})
	}

	gs.RegisterService(serviceDesc, s)
	return nil
}

func (s *Server) handleUnary(ctx context.Context, md *desc.MethodDescriptor, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := dynamic.NewMessage(md.GetInputType())
	if err := dec(in); err != nil {
		return nil, err
	}

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		switch md.GetName() {
		case "Instrument":
			resp := s.Instrument(ctx, requestFromMessage(req.(*dynamic.Message)))
			return resp.toMessage(md.GetOutputType())
		}
		return nil, fmt.Errorf("method %s not implemented", md.GetName())
	}

	if interceptor == nil {
		return handler(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: s, FullMethod: "/" + ServiceName + "/" + md.GetName()}
	return interceptor(ctx, in, info, handler)
}

// RegisterReflection lets clients such as grpcurl discover the service.
func RegisterReflection(gs *grpc.Server) error {
	files, err := Files()
	if err != nil {
		return err
	}
	v1reflectiongrpc.RegisterServerReflectionServer(gs, reflection.NewServerV1(reflection.ServerOptions{
		Services:           gs,
		DescriptorResolver: files,
	}))
	return nil
}

// Serve registers s and server reflection on a new gRPC server and serves
// lis until ctx is done.
func Serve(ctx context.Context, lis net.Listener, s *Server) error {
	gs := grpc.NewServer()
	if err := s.Register(gs); err != nil {
		return err
	}
	if err := RegisterReflection(gs); err != nil {
		return err
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			gs.GracefulStop()
		case <-stop:
		}
	}()

	if err := gs.Serve(lis); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
