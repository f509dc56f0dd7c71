// Package uploadapi defines the UploadService wire contract shared by the
// gRPC server and the uploader client. Messages travel as JSON through the
// "json" codec registered in this package.
package uploadapi

// UploadChunkRequest carries one chunk of a file.
//
// Chunks is the total number of chunks; zero means Payload is the whole file.
// Chunk is the zero-based index. TargetName defaults to Name and Folder is
// relative to the server's upload root.
type UploadChunkRequest struct {
	Name       string `json:"name"`
	TargetName string `json:"target_name,omitempty"`
	Folder     string `json:"folder,omitempty"`
	Chunks     int32  `json:"chunks"`
	Chunk      int32  `json:"chunk"`
	Payload    []byte `json:"payload"`
}

// UploadChunkResponse reports what happened to the chunk. Completed is set on
// the last chunk once the file reached its destination.
type UploadChunkResponse struct {
	Identity     string `json:"identity"`
	Received     int32  `json:"received"`
	Pending      int32  `json:"pending"`
	Completed    bool   `json:"completed"`
	Outcome      string `json:"outcome,omitempty"`
	Path         string `json:"path,omitempty"`
	Size         int64  `json:"size,omitempty"`
	ContentType  string `json:"content_type,omitempty"`
	StorageKey   string `json:"storage_key,omitempty"`
	DownloadURL  string `json:"download_url,omitempty"`
	PublishError string `json:"publish_error,omitempty"`
}

type PingRequest struct{}

type PingResponse struct {
	Status  string `json:"status"`
	Pending int32  `json:"pending"`
}
