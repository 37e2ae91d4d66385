package cli

import (
	"fmt"
	"log"
	"net"

	"github.com/funvibe/tlua/internal/service"
)

const defaultAddr = ":7777"

// handleServe: tlua serve [-addr :7777] [common flags]
func (a *app) handleServe() bool {
	if a.command() != "serve" {
		return false
	}

	fs := a.newFlagSet("serve")
	cf := addCommonFlags(fs)
	addr := fs.String("addr", defaultAddr, "listen address")
	if err := fs.Parse(a.args[1:]); err != nil {
		return a.usageError(nil)
	}
	if fs.NArg() != 0 {
		return a.usageError(fmt.Errorf("serve takes no arguments"))
	}

	sess, err := a.openSession(cf, ".")
	if err != nil {
		return a.fail("%v", err)
	}
	defer sess.Close()

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		return a.fail("%v", err)
	}

	logger := log.New(a.stderr, "", 0)
	logger.Printf("serving %s on %s", service.ServiceName, lis.Addr())
	if sess.compiler.Cache != nil {
		logger.Printf("output cache enabled")
	}

	srv := &service.Server{Compiler: sess.compiler, Logger: logger}
	if err := service.Serve(a.ctx, lis, srv); err != nil {
		return a.fail("%v", err)
	}
	return true
}
