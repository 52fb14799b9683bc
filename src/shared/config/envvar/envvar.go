package envvar

import (
	"fmt"
	"os"
)

const (
	ENVIRONMENT                      = "ENVIRONMENT"
	PORT                             = "PORT"
	AWS_ACCESS_KEY_ID                = "AWS_ACCESS_KEY_ID"
	AWS_SECRET_ACCESS_KEY            = "AWS_SECRET_ACCESS_KEY"
	RABBITMQ_URL                     = "RABBITMQ_URL"
	RABBITMQ_QUEUE_NAME              = "RABBITMQ_QUEUE_NAME"
	GOOGLE_CLOUD_KEY                 = "GOOGLE_CLOUD_KEY"
	GOOGLE_CLOUD_STORAGE_BUCKET_NAME = "GOOGLE_CLOUD_STORAGE_BUCKET_NAME"
	OUTPUT_ROOT                      = "OUTPUT_ROOT"
	SEPARATION_MODEL                 = "SEPARATION_MODEL"
	DRUM_SEPARATION_MODEL            = "DRUM_SEPARATION_MODEL"
	SEPARATION_DEVICE                = "SEPARATION_DEVICE"
	CUDA_VISIBLE_DEVICES             = "CUDA_VISIBLE_DEVICES"
	YOUTUBEDL_BIN_PATH               = "YOUTUBEDL_BIN_PATH"
	DEMUCS_BIN_PATH                  = "DEMUCS_BIN_PATH"
	BASIC_PITCH_BIN_PATH             = "BASIC_PITCH_BIN_PATH"
	DRUM_MODEL_REPO                  = "DRUM_MODEL_REPO"
	SEPARATION_JOBS                  = "SEPARATION_JOBS"
	ALLOWED_FE_ORIGINS               = "ALLOWED_FE_ORIGINS"
)

func MustGet(key string) string {
	val, isSet := os.LookupEnv(key)
	if !isSet {
		panic(fmt.Sprintf("No env variable found for key %s", key))
	}

	if val == "" {
		panic(fmt.Sprintf("Env variable is empty for key %s", key))
	}

	return val
}

func GetOr(key string, fallback string) string {
	val, isSet := os.LookupEnv(key)
	if !isSet || val == "" {
		return fallback
	}

	return val
}
