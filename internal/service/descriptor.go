// Package service exposes the compiler over gRPC. Messages are dynamic,
// built from the embedded instrumenter.proto at start-up.
package service

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"google.golang.org/protobuf/reflect/protoregistry"
)

const (
	protoFile   = "instrumenter.proto"
	ServiceName = "tlua.v1.Instrumenter"
	// InstrumentMethod is the full method path used by grpc.Invoke.
	InstrumentMethod = "/" + ServiceName + "/Instrument"
)

//go:embed instrumenter.proto
var protoSource string

var (
	loadOnce sync.Once
	service  *desc.ServiceDescriptor
	loadErr  error
)

// Descriptor returns the parsed Instrumenter service.
func Descriptor() (*desc.ServiceDescriptor, error) {
	loadOnce.Do(func() {
		parser := protoparse.Parser{
			Accessor: protoparse.FileContentsFromMap(map[string]string{protoFile: protoSource}),
		}
		fds, err := parser.ParseFiles(protoFile)
		if err != nil {
			loadErr = fmt.Errorf("parsing %s: %w", protoFile, err)
			return
		}
		service = fds[0].FindService(ServiceName)
		if service == nil {
			loadErr = fmt.Errorf("service %s not found in %s", ServiceName, protoFile)
		}
	})
	return service, loadErr
}

func instrumentMethod() (*desc.MethodDescriptor, error) {
	sd, err := Descriptor()
	if err != nil {
		return nil, err
	}
	md := sd.FindMethodByName("Instrument")
	if md == nil {
		return nil, fmt.Errorf("method Instrument not found in %s", ServiceName)
	}
	return md, nil
}

// Files returns a registry holding instrumenter.proto, used to answer
// server reflection requests.
func Files() (*protoregistry.Files, error) {
	sd, err := Descriptor()
	if err != nil {
		return nil, err
	}
	files := new(protoregistry.Files)
	if err := files.RegisterFile(sd.GetFile().UnwrapFile()); err != nil {
		return nil, fmt.Errorf("registering %s: %w", protoFile, err)
	}
	return files, nil
}
