package testing

import (
	"github.com/veedubyou/midifi/src/shared/config"
	"github.com/veedubyou/midifi/src/shared/config/dev"
)

// DynamoDB
const (
	DynamoAccessKeyID     = dev.DynamoAccessKeyID
	DynamoSecretAccessKey = dev.DynamoSecretAccessKey
	DynamoDBHost          = dev.DynamoDBHost
)

func DynamoConfig(region string) config.LocalDynamo {
	return config.LocalDynamo{
		AccessKeyID:     DynamoAccessKeyID,
		SecretAccessKey: DynamoSecretAccessKey,
		Region:          region,
		Host:            DynamoDBHost,
	}
}

// RabbitMQ
const (
	RabbitMQHost      = dev.RabbitMQHost
	RabbitMQQueueName = "midifi-runs-test"
)

// Server
const (
	ServerPort = ":5010"
)
