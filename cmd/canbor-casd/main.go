// Command canbor-casd serves a content-addressed store for canonical CBOR
// objects over gRPC.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"google.golang.org/grpc"

	"xdao.co/canbor/storage"
	"xdao.co/canbor/storage/grpccas"
	"xdao.co/canbor/storage/localfs"
)

func main() {
	fs := flag.NewFlagSet("canbor-casd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7777", "listen address")
	backend := fs.String("backend", "memory", "CAS backend (memory or localfs)")
	root := fs.String("root", "", "localfs store root directory")

	_ = fs.Parse(os.Args[1:])

	var cas storage.CAS
	switch *backend {
	case "memory":
		cas = storage.NewMemory()
	case "localfs":
		if *root == "" {
			fmt.Fprintln(os.Stderr, "-root is required with -backend localfs")
			os.Exit(2)
		}
		c, err := localfs.New(*root)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		cas = c
	default:
		fmt.Fprintf(os.Stderr, "unknown backend: %s\n", *backend)
		os.Exit(2)
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer()
	grpccas.RegisterCASServer(s, &grpccas.Server{CAS: cas})

	fmt.Fprintf(os.Stderr, "canbor-casd listening on %s (backend=%s)\n", lis.Addr().String(), *backend)
	if err := s.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
