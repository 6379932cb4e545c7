package grpcblob

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kurtnitsch/crisp/blobstore"
)

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return blobstore.ErrNotFound
	case codes.InvalidArgument:
		// Server uses InvalidArgument for malformed keys.
		return blobstore.ErrInvalidKey
	case codes.DataLoss:
		// Server uses DataLoss when bytes do not match their content key.
		return blobstore.ErrKeyMismatch
	default:
		// Best-effort: if the server sent a known store error message, preserve it.
		switch st.Message() {
		case blobstore.ErrNotFound.Error():
			return blobstore.ErrNotFound
		case blobstore.ErrInvalidKey.Error():
			return blobstore.ErrInvalidKey
		case blobstore.ErrKeyMismatch.Error():
			return blobstore.ErrKeyMismatch
		default:
			return err
		}
	}
}
