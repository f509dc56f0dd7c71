package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophupload/internal/common"
	"github.com/dmitrijs2005/gophupload/internal/server/services"
	"github.com/dmitrijs2005/gophupload/internal/uploadapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) UploadChunk(ctx context.Context, req *uploadapi.UploadChunkRequest) (*uploadapi.UploadChunkResponse, error) {

	log := s.logger.With("request_id", requestIDFrom(ctx), "uploader", uploaderFrom(ctx))

	result, err := s.uploads.Upload(ctx, services.UploadRequest{
		Name:       req.Name,
		TargetName: req.TargetName,
		Folder:     req.Folder,
		Chunks:     int(req.Chunks),
		Chunk:      int(req.Chunk),
		Payload:    req.Payload,
	})
	if err != nil {
		log.Warn(ctx, "chunk rejected", "name", req.Name, "chunk", req.Chunk, "chunks", req.Chunks, "error", err)
		return nil, toStatus(err)
	}

	log.Info(ctx, "chunk accepted", "identity", result.Handle.Key(), "chunk", req.Chunk, "pending", result.Pending)
	return toResponse(result), nil

}

func (s *GRPCServer) Ping(ctx context.Context, req *uploadapi.PingRequest) (*uploadapi.PingResponse, error) {

	return &uploadapi.PingResponse{Status: "OK", Pending: int32(s.uploads.Pending())}, nil

}

func toResponse(r *services.UploadResult) *uploadapi.UploadChunkResponse {
	resp := &uploadapi.UploadChunkResponse{
		Identity: r.Handle.Key(),
		Received: int32(len(r.Handle.Chunks)),
		Pending:  int32(r.Pending),
	}

	if c := r.Completion; c != nil {
		resp.Completed = c.Outcome.Completed()
		resp.Outcome = c.Outcome.String()
		resp.Path = c.Path
		resp.Size = c.Size
		resp.ContentType = r.ContentType
	}
	if p := r.Publication; p != nil {
		resp.StorageKey = p.StorageKey
		resp.DownloadURL = p.DownloadURL
	}
	if r.PublishErr != nil {
		resp.PublishError = r.PublishErr.Error()
	}

	return resp
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrUploadNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrInvalidChunk), errors.Is(err, common.ErrInvalidPath):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	}
	return status.Error(codes.Internal, "internal error")
}
