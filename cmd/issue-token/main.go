// Command issue-token mints an access token for calling the API during
// development, for example an ADMIN token for the host stand:
//
//	issue-token --subject host-1 --role ADMIN --ttl 12h
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/iliyamo/restaurant-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-reservation/internal/utils"
)

func main() {
	_ = godotenv.Load()

	subject := flag.StringP("subject", "s", "", "token subject (required)")
	role := flag.StringP("role", "r", middleware.RoleCustomer, "role claim: ADMIN or CUSTOMER")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "signing secret (defaults to $JWT_SECRET)")
	flag.Parse()

	r := strings.ToUpper(*role)
	if r != middleware.RoleAdmin && r != middleware.RoleCustomer {
		fmt.Fprintf(os.Stderr, "error: unknown role %q\n", *role)
		os.Exit(2)
	}
	tok, err := utils.NewAccessToken(*secret, *subject, r, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}
	fmt.Println(tok.Token)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format(time.RFC3339))
}
