// Command crisp-blobd serves a blobstore over gRPC so agents can exchange the
// out-of-band data that DataPointer values address.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"google.golang.org/grpc"

	"github.com/kurtnitsch/crisp/blobstore"
	"github.com/kurtnitsch/crisp/blobstore/grpcblob"
)

func main() {
	fs := flag.NewFlagSet("crisp-blobd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7878", "listen address")
	root := fs.String("root", "", "blob directory (empty for an in-memory store)")

	_ = fs.Parse(os.Args[1:])

	var store blobstore.Store
	if *root == "" {
		store = blobstore.NewMemory()
	} else {
		fsStore, err := blobstore.NewLocalFS(*root)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		store = fsStore
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer()
	grpcblob.RegisterBlobServer(s, &grpcblob.Server{Store: store})

	backend := *root
	if backend == "" {
		backend = "memory"
	}
	fmt.Fprintf(os.Stderr, "crisp-blobd listening on %s (root=%s)\n", lis.Addr().String(), backend)
	if err := s.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
