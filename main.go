package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/felicity-events/felicity-api/cmd/app"
)

// @title           Felicity API
// @version         1.0
// @description     Campus event management: events, registrations, teams, attendance and forums.
//
// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io
//
// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html
//
// @BasePath  /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
