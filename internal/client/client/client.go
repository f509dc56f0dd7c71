package client

import (
	"context"

	"github.com/dmitrijs2005/gophupload/internal/uploadapi"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) (*uploadapi.PingResponse, error)
	UploadChunk(ctx context.Context, req *uploadapi.UploadChunkRequest) (*uploadapi.UploadChunkResponse, error)
}
