package config

import (
	"flag"
	"os"
	"strings"

	"github.com/dmitrijs2005/gophupload/internal/flagx"
)

var ownedFlags = []string{"-a", "-t", "-n", "-f"}

// parseFlags populates selected Config fields from command-line flags.
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], ownedFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.AccessToken, "t", cfg.AccessToken, "access token")
	fs.IntVar(&cfg.ChunkSize, "n", cfg.ChunkSize, "chunk size in bytes")
	fs.StringVar(&cfg.Folder, "f", cfg.Folder, "destination folder")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.Files = positional(os.Args[1:], append(ownedFlags, "-c", "-config"))
}

// positional returns the arguments that are neither flags nor values of the
// given value-taking flags.
func positional(args []string, valueFlags []string) []string {
	takesValue := make(map[string]bool, len(valueFlags))
	for _, f := range valueFlags {
		takesValue[f] = true
	}

	files := make([]string, 0)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			files = append(files, arg)
			continue
		}
		if strings.Contains(arg, "=") {
			continue
		}
		if takesValue[arg] && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
		}
	}
	return files
}
