// Package cli implements the uploader command: it splits local files into
// chunks, sends them in order over gRPC and reports where each file ended up.
//
// When the server answers that it lost the upload, the file is sent again
// from chunk 0, at most MaxRestarts times. Progress is printed only when the
// output is a terminal.
package cli
