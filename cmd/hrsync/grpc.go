package main

import (
	"context"
	"log"
	"net"

	"google.golang.org/grpc"

	"hrsync/target/grpclink"
	"hrsync/target/mock"
)

// serveMockTarget exposes a fresh mock target over gRPC until ctx is done.
func serveMockTarget(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := grpc.NewServer()
	grpclink.RegisterTargetServer(srv, mock.NewTarget())
	go func() {
		<-ctx.Done()
		srv.Stop()
	}()

	log.Printf("hrsync: serving mock target over grpc on %s\n", lis.Addr())
	if err = srv.Serve(lis); err == grpc.ErrServerStopped {
		return nil
	}
	return err
}
