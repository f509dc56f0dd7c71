package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gophupload/internal/common"
	"github.com/dmitrijs2005/gophupload/internal/server/services"
	"github.com/gin-gonic/gin"
)

type handlerError struct {
	StatusCode int
	Message    string
}

func (e *handlerError) Error() string {
	return e.Message
}

type uploadResponse struct {
	Identity     string `json:"identity"`
	Received     int    `json:"received"`
	Pending      int    `json:"pending"`
	Completed    bool   `json:"completed"`
	Outcome      string `json:"outcome,omitempty"`
	Path         string `json:"path,omitempty"`
	Size         int64  `json:"size,omitempty"`
	ContentType  string `json:"content_type,omitempty"`
	StorageKey   string `json:"storage_key,omitempty"`
	DownloadURL  string `json:"download_url,omitempty"`
	PublishError string `json:"publish_error,omitempty"`
}

func (s *HTTPServer) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK", "pending": s.uploads.Pending()})
}

// upload handles one plupload chunk: form fields name, chunks, chunk,
// folder, targetName and the file part.
func (s *HTTPServer) upload(c *gin.Context) {
	ctx := c.Request.Context()
	log := s.logger.With("request_id", c.GetString(requestIDKey), "uploader", c.GetString(uploaderKey))

	req, err := readUploadForm(c)
	if err != nil {
		var he *handlerError
		if errors.As(err, &he) {
			c.JSON(he.StatusCode, gin.H{"error": he.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	result, err := s.uploads.Upload(ctx, req)
	if err != nil {
		log.Warn(ctx, "chunk rejected", "name", req.Name, "chunk", req.Chunk, "chunks", req.Chunks, "error", err)
		code, msg := statusFor(err)
		c.JSON(code, gin.H{"error": msg})
		return
	}

	log.Info(ctx, "chunk accepted", "identity", result.Handle.Key(), "chunk", req.Chunk, "pending", result.Pending)
	c.JSON(http.StatusOK, toResponse(result))
}

func (s *HTTPServer) recent(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	items, err := s.uploads.Recent(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error(c.Request.Context(), "recent uploads failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if items == nil {
		c.JSON(http.StatusOK, []any{})
		return
	}
	c.JSON(http.StatusOK, items)
}

func readUploadForm(c *gin.Context) (services.UploadRequest, error) {
	req := services.UploadRequest{
		Name:       c.PostForm("name"),
		TargetName: c.PostForm("targetName"),
		Folder:     c.PostForm("folder"),
	}

	var err error
	if req.Chunks, err = formInt(c, "chunks"); err != nil {
		return req, err
	}
	if req.Chunk, err = formInt(c, "chunk"); err != nil {
		return req, err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return req, &handlerError{http.StatusBadRequest, "No file uploaded"}
	}
	if req.Name == "" {
		req.Name = fileHeader.Filename
	}

	f, err := fileHeader.Open()
	if err != nil {
		return req, &handlerError{http.StatusInternalServerError, fmt.Sprintf("Unable to open file: %v", err)}
	}
	defer f.Close()

	if req.Payload, err = io.ReadAll(f); err != nil {
		return req, &handlerError{http.StatusInternalServerError, "Failed to read file content"}
	}

	return req, nil
}

// formInt reads an optional integer form field; missing means zero.
func formInt(c *gin.Context, key string) (int, error) {
	v := c.PostForm(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &handlerError{http.StatusBadRequest, fmt.Sprintf("invalid %s", key)}
	}
	return n, nil
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrUploadNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, common.ErrInvalidChunk), errors.Is(err, common.ErrInvalidPath):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	}
	return http.StatusInternalServerError, "internal error"
}

func toResponse(r *services.UploadResult) uploadResponse {
	resp := uploadResponse{
		Identity: r.Handle.Key(),
		Received: len(r.Handle.Chunks),
		Pending:  r.Pending,
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
