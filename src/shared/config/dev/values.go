package dev

import (
	"path"

	"github.com/veedubyou/midifi/src/shared/config"
	"github.com/veedubyou/midifi/src/shared/config/local"
)

// DynamoDB
const (
	DynamoAccessKeyID     = "local"
	DynamoSecretAccessKey = "local"
	DynamoDBHost          = "http://localhost:8000"
	DynamoDBRegion        = "localhost"
)

var DynamoConfig = config.LocalDynamo{
	AccessKeyID:     DynamoAccessKeyID,
	SecretAccessKey: DynamoSecretAccessKey,
	Region:          DynamoDBRegion,
	Host:            DynamoDBHost,
}

// RabbitMQ
const (
	RabbitMQHost      = "amqp://localhost:5672"
	RabbitMQQueueName = "midifi-runs-dev"
)

// Cloud storage
const (
	CloudStorageHost   = "http://localhost:4443"
	CloudStorageBucket = "midifi-dev"
)

var CloudStorageConfig = config.LocalCloudStorage{
	StorageHost:  CloudStorageHost,
	HostEndpoint: CloudStorageHost + "/storage/v1/",
	BucketName:   CloudStorageBucket,
}

// Server
const (
	ServerPort = ":5000"
)

func OutputRoot() string {
	return path.Join(local.ProjectRoot(), "output")
}
