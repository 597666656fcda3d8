// Command tokenhash prints the bcrypt hash to configure as STORE_AUTH_ADMIN_TOKEN_HASH.
package main

import (
	"fmt"
	"os"

	"github.com/irsalhamdi/storefront/core/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: tokenhash <admin-token>")
		os.Exit(2)
	}

	hash, err := auth.HashToken(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
