package application

import (
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cockroachdb/errors"
	"github.com/guregu/dynamo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	filegateway "github.com/veedubyou/midifi/src/server/internal/files/gateway"
	fileusecase "github.com/veedubyou/midifi/src/server/internal/files/usecase"
	rungateway "github.com/veedubyou/midifi/src/server/internal/run/gateway"
	runusecase "github.com/veedubyou/midifi/src/server/internal/run/usecase"
	"github.com/veedubyou/midifi/src/shared/artifact/layout"
	"github.com/veedubyou/midifi/src/shared/config"
	dynamolib "github.com/veedubyou/midifi/src/shared/lib/dynamo"
	"github.com/veedubyou/midifi/src/shared/lib/rabbitmq"
	runstorage "github.com/veedubyou/midifi/src/shared/run/storage"
)

type HTTPMethod string

const (
	GET  HTTPMethod = "GET"
	POST HTTPMethod = "POST"
)

type App struct {
	echo      *echo.Echo
	port      string
	publisher *rabbitmq.QueuePublisher
}

type Config struct {
	DynamoConfig       config.Dynamo
	RabbitMQURL        string
	RabbitMQQueueName  string
	CORSAllowedOrigins []string
	OutputRoot         string
	Model              string
	DrumModel          string
	Port               string
	Log                bool
}

func NewApp(config Config) App {
	e := echo.New()

	if config.Log {
		e.Use(middleware.Logger())
	}

	corsMiddleware := makeCorsMiddleware(config)

	handleRoute := func(method HTTPMethod, path string, handlerFunc echo.HandlerFunc) {
		params := func() (string, echo.HandlerFunc, echo.MiddlewareFunc) {
			return path, handlerFunc, corsMiddleware
		}

		e.OPTIONS(params())

		switch method {
		case GET:
			e.GET(params())
		case POST:
			e.POST(params())
		default:
			panic("unhandled http method!")
		}
	}

	dynamoDB := makeDynamoDB(config.DynamoConfig)
	rabbitmqPublisher := makeRabbitMQPublisher(config)
	manager := layout.NewManager(config.OutputRoot, config.Model, config.DrumModel)

	runGateway := makeRunGateway(dynamoDB, rabbitmqPublisher, manager)
	fileGateway := makeFileGateway(manager)

	// health check
	handleRoute(GET, "/health-check", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// run routes
	handleRoute(POST, "/runs", runGateway.CreateRun)
	handleRoute(GET, "/runs/:id", func(c echo.Context) error {
		runID := c.Param("id")
		return runGateway.GetRun(c, runID)
	})

	// artifact routes
	handleRoute(GET, "/browse", func(c echo.Context) error {
		return fileGateway.Browse(c, "")
	})
	handleRoute(GET, "/browse/*", func(c echo.Context) error {
		return fileGateway.Browse(c, c.Param("*"))
	})
	handleRoute(GET, "/files/*", func(c echo.Context) error {
		return fileGateway.ServeFile(c, c.Param("*"))
	})

	return App{
		echo:      e,
		port:      config.Port,
		publisher: rabbitmqPublisher,
	}
}

func (a *App) Start() error {
	err := a.echo.Start(a.port)
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "Couldn't start echo server")
	}

	return nil
}

func (a *App) Stop() error {
	a.publisher.Close()

	err := a.echo.Close()
	if err != nil {
		return errors.Wrap(err, "Failed to stop echo server")
	}

	return nil
}

func makeRabbitMQPublisher(config Config) *rabbitmq.QueuePublisher {
	publisher, err := rabbitmq.NewQueuePublisher(config.RabbitMQURL, config.RabbitMQQueueName)
	if err != nil {
		panic(errors.Wrap(err, "Failed to create rabbitMQ publisher"))
	}

	return publisher
}

func makeDynamoDB(dynamoConfig config.Dynamo) dynamolib.DynamoDBWrapper {
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

	db := dynamo.New(dbSession, dbConfig)
	return dynamolib.NewDynamoDBWrapper(db)
}

func makeRunGateway(dynamoDB dynamolib.DynamoDBWrapper, publisher rabbitmq.Publisher, manager layout.Manager) rungateway.Gateway {
	runDB := runstorage.NewDB(dynamoDB)
	runUsecase := runusecase.NewUsecase(runDB, publisher, manager)
	return rungateway.NewGateway(runUsecase)
}

func makeFileGateway(manager layout.Manager) filegateway.Gateway {
	return filegateway.NewGateway(fileusecase.NewUsecase(manager))
}

func makeCorsMiddleware(config Config) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: config.CORSAllowedOrigins,
		AllowHeaders: []string{echo.HeaderContentType},
	})
}
