// Command tokengen prints an access token signed with the server's secret
// key. The secret comes from the same -s flag and JSON file the server uses.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/gophupload/internal/flagx"
	"github.com/dmitrijs2005/gophupload/internal/server/auth"
	"github.com/dmitrijs2005/gophupload/internal/server/config"
)

func main() {

	cfg := config.LoadConfig()

	var (
		subject  string
		validity time.Duration
	)

	fs := flag.NewFlagSet("tokengen", flag.ContinueOnError)
	fs.StringVar(&subject, "subject", "uploader", "token subject")
	fs.DurationVar(&validity, "ttl", 24*time.Hour, "token validity")

	if err := fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-subject", "-ttl"})); err != nil {
		log.Fatalf("%v", err)
	}

	token, err := auth.GenerateToken(subject, []byte(cfg.SecretKey), validity)
	if err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Println(token)
}
