// cmd/main.go
package main

import (
	"go-recruit-auth/app"

	_ "go-recruit-auth/docs"
)

// @title           Recruiting Platform Trust Core
// @version         1.0
// @description     Token issuance and verification, single-use token lifecycle, webhook signature guard and rate limiting for the recruiting platform.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
