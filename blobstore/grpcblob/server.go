package grpcblob

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/kurtnitsch/crisp/blobstore"
)

// Server exposes a blobstore.Store over the Blob gRPC service.
//
// Put at the RPC edge is content addressed: the server derives the key from
// the bytes with blobstore.ContentKey and returns it. Clients therefore
// cannot place bytes under an arbitrary key through this service.
type Server struct {
	UnimplementedBlobServer
	Store blobstore.Store
}

func (s *Server) Put(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	_ = ctx
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	b := in.GetValue()
	key := blobstore.ContentKey(b)
	if err := s.Store.Put(key, b); err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.String(key), nil
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	_ = ctx
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	key := in.GetValue()
	if err := blobstore.CheckKey(key); err != nil {
		return nil, status.Error(codes.InvalidArgument, blobstore.ErrInvalidKey.Error())
	}
	b, err := s.Store.Get(key)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Has(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	_ = ctx
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	key := in.GetValue()
	if err := blobstore.CheckKey(key); err != nil {
		return nil, status.Error(codes.InvalidArgument, blobstore.ErrInvalidKey.Error())
	}
	return wrapperspb.Bool(s.Store.Has(key)), nil
}

func (s *Server) List(ctx context.Context, in *emptypb.Empty) (*structpb.ListValue, error) {
	_ = ctx
	_ = in
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	keys, err := s.Store.List()
	if err != nil {
		return nil, mapErr(err)
	}
	out := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(keys))}
	for _, k := range keys {
		out.Values = append(out.Values, structpb.NewStringValue(k))
	}
	return out, nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case err == blobstore.ErrNotFound:
		return status.Error(codes.NotFound, err.Error())
	case err == blobstore.ErrInvalidKey:
		return status.Error(codes.InvalidArgument, err.Error())
	case err == blobstore.ErrKeyMismatch:
		return status.Error(codes.DataLoss, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
