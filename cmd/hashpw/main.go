// Command hashpw prints a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
//
//	go run ./cmd/hashpw -cost 12 'my admin password'
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/movies-api/internal/utils"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: hashpw [-cost N] <password>")
		os.Exit(2)
	}
	hash, err := utils.HashPassword(flag.Arg(0), *cost)
	if err != nil {
		log.Fatalf("hash: %v", err)
	}
	fmt.Println(hash)
}
