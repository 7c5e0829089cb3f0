package initializers

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// LoadEnv reads .env into the process environment. A missing file is fine:
// in production the variables come from the environment itself.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file loaded, using process environment")
	}
}
