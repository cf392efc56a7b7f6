// Command devtoken mints an access token for local testing against a
// server that shares its JWT_SECRET.
//
//	devtoken -user 42 -role OWNER
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/vegnbio/reservation-engine/internal/utils"
)

type env struct {
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	TTLMin    int    `envconfig:"ACCESS_TOKEN_TTL_MIN" default:"60"`
}

func main() {
	user := flag.Uint64("user", 1, "user id carried in the sub claim")
	role := flag.String("role", "CUSTOMER", "role claim")
	flag.Parse()

	_ = godotenv.Load()
	var e env
	if err := envconfig.Process("", &e); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	tok, err := utils.NewAccessToken(e.JWTSecret, *user, *role, e.TTLMin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(tok.Token)
}
