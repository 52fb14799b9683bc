package main

import (
	"os"
	"strconv"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/veedubyou/midifi/src/shared/config"
	"github.com/veedubyou/midifi/src/shared/config/dev"
	"github.com/veedubyou/midifi/src/shared/config/envvar"
	"github.com/veedubyou/midifi/src/shared/config/prod"
	"github.com/veedubyou/midifi/src/shared/lib/env"
	"github.com/veedubyou/midifi/src/worker/application"
)

func jobs() int {
	raw := envvar.GetOr(envvar.SEPARATION_JOBS, "")
	if raw == "" {
		return 0
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil {
		panic(err)
	}

	return parsed
}

// binPath prefers the env variable and only searches PATH without it.
func binPath(key string, find func() string) string {
	if path := envvar.GetOr(key, ""); path != "" {
		return path
	}

	return find()
}

func main() {
	env.LoadDotEnv()

	var appConfig application.Config

	switch env.Get() {
	case env.Production:
		log.SetHandler(json.New(os.Stderr))

		appConfig = application.Config{
			DynamoConfig: config.ProdDynamo{
				AccessKeyID:     envvar.MustGet(envvar.AWS_ACCESS_KEY_ID),
				SecretAccessKey: envvar.MustGet(envvar.AWS_SECRET_ACCESS_KEY),
				Region:          prod.DynamoDBRegion,
			},
			CloudStorageConfig: config.ProdCloudStorage{
				StorageHost: prod.GOOGLE_STORAGE_HOST,
				SecretKey:   envvar.MustGet(envvar.GOOGLE_CLOUD_KEY),
				BucketName:  envvar.MustGet(envvar.GOOGLE_CLOUD_STORAGE_BUCKET_NAME),
			},
			RabbitMQURL:       envvar.MustGet(envvar.RABBITMQ_URL),
			RabbitMQQueueName: envvar.MustGet(envvar.RABBITMQ_QUEUE_NAME),
			OutputRoot:        envvar.MustGet(envvar.OUTPUT_ROOT),
			Model:             envvar.GetOr(envvar.SEPARATION_MODEL, ""),
			DrumModel:         envvar.GetOr(envvar.DRUM_SEPARATION_MODEL, ""),
			DrumModelRepo:     envvar.GetOr(envvar.DRUM_MODEL_REPO, ""),
			Jobs:              jobs(),
			YoutubeDLBinPath:  envvar.MustGet(envvar.YOUTUBEDL_BIN_PATH),
			DemucsBinPath:     envvar.MustGet(envvar.DEMUCS_BIN_PATH),
			BasicPitchBinPath: envvar.MustGet(envvar.BASIC_PITCH_BIN_PATH),
		}

	case env.Development:
		log.SetHandler(text.New(os.Stderr))
		log.SetLevel(log.DebugLevel)

		appConfig = application.Config{
			DynamoConfig:       dev.DynamoConfig,
			CloudStorageConfig: dev.CloudStorageConfig,
			RabbitMQURL:        dev.RabbitMQHost,
			RabbitMQQueueName:  dev.RabbitMQQueueName,
			OutputRoot:         envvar.GetOr(envvar.OUTPUT_ROOT, dev.OutputRoot()),
			Model:              envvar.GetOr(envvar.SEPARATION_MODEL, ""),
			DrumModel:          envvar.GetOr(envvar.DRUM_SEPARATION_MODEL, ""),
			DrumModelRepo:      envvar.GetOr(envvar.DRUM_MODEL_REPO, ""),
			Jobs:               jobs(),
			YoutubeDLBinPath:   binPath(envvar.YOUTUBEDL_BIN_PATH, config.YoutubeDLPath),
			DemucsBinPath:      binPath(envvar.DEMUCS_BIN_PATH, config.DemucsPath),
			BasicPitchBinPath:  binPath(envvar.BASIC_PITCH_BIN_PATH, config.BasicPitchPath),
		}

	default:
		panic("Unexpected environment")
	}

	app := application.NewApp(appConfig)
	if err := app.Start(); err != nil {
		panic(err)
	}
}
