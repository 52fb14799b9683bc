package main

import (
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/veedubyou/midifi/src/server/application"
	"github.com/veedubyou/midifi/src/shared/config"
	"github.com/veedubyou/midifi/src/shared/config/dev"
	"github.com/veedubyou/midifi/src/shared/config/envvar"
	"github.com/veedubyou/midifi/src/shared/config/prod"
	"github.com/veedubyou/midifi/src/shared/lib/env"
)

func main() {
	env.LoadDotEnv()

	var appConfig application.Config

	switch env.Get() {
	case env.Production:
		log.SetHandler(json.New(os.Stderr))

		commaSeparatedOrigins := envvar.MustGet(envvar.ALLOWED_FE_ORIGINS)
		allowedOrigins := strings.Split(commaSeparatedOrigins, ",")

		appConfig = application.Config{
			DynamoConfig: config.ProdDynamo{
				AccessKeyID:     envvar.MustGet(envvar.AWS_ACCESS_KEY_ID),
				SecretAccessKey: envvar.MustGet(envvar.AWS_SECRET_ACCESS_KEY),
				Region:          prod.DynamoDBRegion,
			},
			RabbitMQURL:        envvar.MustGet(envvar.RABBITMQ_URL),
			RabbitMQQueueName:  envvar.MustGet(envvar.RABBITMQ_QUEUE_NAME),
			CORSAllowedOrigins: allowedOrigins,
			OutputRoot:         envvar.MustGet(envvar.OUTPUT_ROOT),
			Model:              envvar.GetOr(envvar.SEPARATION_MODEL, ""),
			DrumModel:          envvar.GetOr(envvar.DRUM_SEPARATION_MODEL, ""),
			Port:               envvar.GetOr(envvar.PORT, dev.ServerPort),
			Log:                true,
		}

	case env.Development:
		log.SetHandler(text.New(os.Stderr))
		log.SetLevel(log.DebugLevel)

		appConfig = application.Config{
			DynamoConfig:       dev.DynamoConfig,
			RabbitMQURL:        dev.RabbitMQHost,
			RabbitMQQueueName:  dev.RabbitMQQueueName,
			CORSAllowedOrigins: []string{"*"},
			OutputRoot:         envvar.GetOr(envvar.OUTPUT_ROOT, dev.OutputRoot()),
			Model:              envvar.GetOr(envvar.SEPARATION_MODEL, ""),
			DrumModel:          envvar.GetOr(envvar.DRUM_SEPARATION_MODEL, ""),
			Port:               dev.ServerPort,
			Log:                true,
		}

	default:
		panic("Unexpected environment")
	}

	app := application.NewApp(appConfig)
	if err := app.Start(); err != nil {
		panic(err)
	}
}
