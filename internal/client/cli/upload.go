package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dmitrijs2005/gophupload/internal/client/client"
	"github.com/dmitrijs2005/gophupload/internal/uploadapi"
)

// chunkCount returns how many chunks a file of size bytes takes. Empty
// files still take one chunk.
func chunkCount(size int64, chunkSize int) int32 {
	if size == 0 {
		return 1
	}
	n := size / int64(chunkSize)
	if size%int64(chunkSize) != 0 {
		n++
	}
	return int32(n)
}

// UploadFile sends path and returns the server's answer to the last chunk.
func (a *App) UploadFile(ctx context.Context, path string) (*uploadapi.UploadChunkResponse, error) {
	var err error
	for attempt := 0; attempt <= MaxRestarts; attempt++ {
		var res *uploadapi.UploadChunkResponse
		res, err = a.sendOnce(ctx, path)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, client.ErrRestartUpload) {
			return nil, err
		}
		fmt.Fprintf(a.out, "%s: server lost the upload, restarting\n", path)
	}
	return nil, err
}

func (a *App) sendOnce(ctx context.Context, path string) (*uploadapi.UploadChunkResponse, error) {
	f, err := a.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	name := filepath.Base(path)
	total := chunkCount(info.Size(), a.config.ChunkSize)
	p := newProgress(a.out, a.progress, name, info.Size())

	buf := make([]byte, a.config.ChunkSize)
	var res *uploadapi.UploadChunkResponse

	for i := int32(0); i < total; i++ {
		n, err := io.ReadFull(f, buf)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return nil, err
		}

		req := &uploadapi.UploadChunkRequest{
			Name:    name,
			Folder:  a.config.Folder,
			Chunks:  total,
			Chunk:   i,
			Payload: buf[:n],
		}

		res, err = a.client.UploadChunk(ctx, req)
		if err != nil {
			p.abort()
			return nil, err
		}
		p.add(n)
	}
	p.done()

	return res, nil
}
