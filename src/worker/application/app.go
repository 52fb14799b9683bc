package application

import (
	"time"

	"github.com/apex/log"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cenkalti/backoff/v4"
	"github.com/guregu/dynamo"
	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/midifi/src/shared/artifact/layout"
	"github.com/veedubyou/midifi/src/shared/config"
	"github.com/veedubyou/midifi/src/shared/lib/cerr"
	dynamolib "github.com/veedubyou/midifi/src/shared/lib/dynamo"
	runentity "github.com/veedubyou/midifi/src/shared/run/entity"
	runstorage "github.com/veedubyou/midifi/src/shared/run/storage"
	"github.com/veedubyou/midifi/src/worker/internal/application/engines/download"
	"github.com/veedubyou/midifi/src/worker/internal/application/engines/separate"
	"github.com/veedubyou/midifi/src/worker/internal/application/engines/transcribe"
	"github.com/veedubyou/midifi/src/worker/internal/application/executor"
	"github.com/veedubyou/midifi/src/worker/internal/application/jobs/job_router"
	"github.com/veedubyou/midifi/src/worker/internal/application/jobs/run"
	"github.com/veedubyou/midifi/src/worker/internal/application/mirror"
	"github.com/veedubyou/midifi/src/worker/internal/application/pipeline"
	"github.com/veedubyou/midifi/src/worker/internal/application/worker"
	"github.com/veedubyou/midifi/src/worker/internal/lib/storagepath"
	"google.golang.org/api/option"
)

const dialTimeout = time.Minute

func must[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}

	return t
}

type App struct {
	worker *worker.QueueWorker
}

type Config struct {
	RabbitMQURL       string
	RabbitMQQueueName string
	DynamoConfig      config.Dynamo
	// CloudStorageConfig is optional; without it finished runs are not
	// mirrored.
	CloudStorageConfig config.CloudStorage

	OutputRoot    string
	Model         string
	DrumModel     string
	DrumModelRepo string
	Jobs          int

	YoutubeDLBinPath  string
	DemucsBinPath     string
	BasicPitchBinPath string
}

func NewApp(config Config) App {
	consumerConn := must(dialRabbitMQ(config.RabbitMQURL))

	return App{
		worker: newWorker(config, consumerConn),
	}
}

func (a *App) Start() error {
	err := a.worker.Start()
	if err != nil {
		return cerr.Wrap(err).Error("Failed to start worker")
	}

	return nil
}

func (a *App) Stop() {
	a.worker.Stop()
}

func dialRabbitMQ(url string) (*amqp091.Connection, error) {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = dialTimeout

	var conn *amqp091.Connection
	dial := func() error {
		var err error
		conn, err = amqp091.Dial(url)
		return err
	}

	notify := func(err error, wait time.Duration) {
		log.WithError(err).WithField("retry_in", wait.String()).Warn("RabbitMQ not reachable")
	}

	if err := backoff.RetryNotify(dial, policy, notify); err != nil {
		return nil, cerr.Wrap(err).Error("Failed to connect to RabbitMQ")
	}

	return conn, nil
}

func newWorker(config Config, consumerConn *amqp091.Connection) *worker.QueueWorker {
	runStore := runstorage.NewDB(newDynamoDB(config.DynamoConfig))

	return must(worker.NewQueueWorkerFromConnection(
		consumerConn,
		config.RabbitMQQueueName,
		newJobRouter(config, runStore)))
}

func newDynamoDB(dynamoConfig config.Dynamo) dynamolib.DynamoDBWrapper {
	dbSession := session.Must(session.NewSession())

	var dbConfig *aws.Config

	switch t := dynamoConfig.(type) {
	case config.ProdDynamo:
		dbConfig = aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region)

	case config.LocalDynamo:
		dbConfig = aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region).
			WithEndpoint(t.Host)

	default:
		panic("Unexpected dynamo config type")
	}

	return dynamolib.NewDynamoDBWrapper(dynamo.New(dbSession, dbConfig))
}

func newGoogleFileStore(cloudStorageConfig config.CloudStorage) mirror.GoogleFileStore {
	switch t := cloudStorageConfig.(type) {
	case config.ProdCloudStorage:
		return must(mirror.NewGoogleFileStore(
			t.StorageHost,
			option.WithCredentialsJSON([]byte(t.SecretKey)),
		))

	case config.LocalCloudStorage:
		return must(mirror.NewGoogleFileStore(
			t.StorageHost,
			option.WithEndpoint(t.HostEndpoint),
			option.WithAPIKey("fake_api_key"),
		))

	default:
		panic("Unrecognized cloud storage config")
	}
}

func newMirror(config Config) run.Mirror {
	if config.CloudStorageConfig == nil {
		return nil
	}

	pathGenerator := storagepath.Generator{
		Host:   config.CloudStorageConfig.GetStorageHost(),
		Bucket: config.CloudStorageConfig.GetBucket(),
	}

	return mirror.NewMirror(newGoogleFileStore(config.CloudStorageConfig), pathGenerator)
}

func newOrchestrator(config Config, runStore runentity.Store) pipeline.Orchestrator {
	commandExecutor := executor.BinaryFileExecutor{}
	manager := layout.NewManager(config.OutputRoot, config.Model, config.DrumModel)

	modelRepos := map[string]string{}
	if config.DrumModelRepo != "" {
		modelRepos[manager.DrumModel] = config.DrumModelRepo
	}

	collaborators := pipeline.Collaborators{
		Downloader: download.NewYoutubeDLer(config.YoutubeDLBinPath, commandExecutor),
		Separator: separate.NewDemucs(separate.DemucsConfig{
			BinPath:    config.DemucsBinPath,
			Jobs:       config.Jobs,
			ModelRepos: modelRepos,
		}, commandExecutor),
		Transcriber: transcribe.NewBasicPitch(config.BasicPitchBinPath, commandExecutor),
	}

	return pipeline.NewOrchestrator(collaborators, manager, runStore)
}

func newJobRouter(config Config, runStore runentity.Store) job_router.JobRouter {
	runHandler := run.NewJobHandler(
		newOrchestrator(config, runStore),
		runStore,
		newMirror(config),
	)

	return job_router.NewJobRouter(runStore, runHandler)
}
