package env

import (
	"os"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

type Environment string

const (
	Production  Environment = "production"
	Development Environment = "development"
	Test        Environment = "test"
)

const environmentKey = "ENVIRONMENT"

func Get() Environment {
	environment, ok := os.LookupEnv(environmentKey)
	if environment == "" || !ok {
		panic("No environment var is set")
	}

	switch environment {
	case "production":
		return Production
	case "development":
		return Development
	case "test":
		return Test
	default:
		panic("Invalid environment is set")
	}
}

// LoadDotEnv reads .env files into the process environment outside of
// production. Variables already set are left alone.
func LoadDotEnv(files ...string) {
	if environment, ok := os.LookupEnv(environmentKey); ok && environment == string(Production) {
		return
	}

	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			log.WithField("file", file).Debug("No dotenv file loaded")
		}
	}
}
