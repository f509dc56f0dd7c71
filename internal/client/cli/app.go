package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophupload/internal/client/client"
	"github.com/dmitrijs2005/gophupload/internal/client/config"
	"github.com/dmitrijs2005/gophupload/internal/uploadapi"
	"github.com/spf13/afero"
)

// MaxRestarts bounds how many times one file is resent from chunk 0.
const MaxRestarts = 2

var ErrNoFiles = errors.New("no files to upload")

type App struct {
	config   *config.Config
	client   client.Client
	fs       afero.Fs
	out      io.Writer
	progress bool
}

func NewApp(c *config.Config) (*App, error) {

	if c.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}

	apiClient, err := client.NewUploadClient(c.ServerEndpointAddr, c.AccessToken)
	if err != nil {
		return nil, err
	}

	return newApp(c, apiClient, afero.NewOsFs(), os.Stdout), nil
}

func newApp(c *config.Config, cl client.Client, fsys afero.Fs, out io.Writer) *App {
	return &App{config: c, client: cl, fs: fsys, out: out, progress: isTerminal(out)}
}

// Run uploads every configured file in order and stops at the first failure.
func (a *App) Run(ctx context.Context) error {
	defer a.client.Close()

	if len(a.config.Files) == 0 {
		return ErrNoFiles
	}

	for _, path := range a.config.Files {
		res, err := a.UploadFile(ctx, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		a.report(path, res)
	}
	return nil
}

func (a *App) report(path string, res *uploadapi.UploadChunkResponse) {
	fmt.Fprintf(a.out, "%s: %s -> %s (%s)\n", path, res.Outcome, res.Path, res.ContentType)
	if res.DownloadURL != "" {
		fmt.Fprintf(a.out, "  download: %s\n", res.DownloadURL)
	}
	if res.PublishError != "" {
		fmt.Fprintf(a.out, "  publish failed: %s\n", res.PublishError)
	}
}
