package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/woox/commerce-relay-go/internal/util"
)

// Generates a bcrypt hash for SERVICE_TOKEN_HASH. With no argument a fresh
// random token is generated and printed alongside its hash.
func main() {
	var token string
	if len(os.Args) >= 2 {
		token = os.Args[1]
	} else {
		generated, err := util.GenerateToken()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		token = generated
		fmt.Printf("Token: %s\n", token)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(token), 12)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(hash))
}
