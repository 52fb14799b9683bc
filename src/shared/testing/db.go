package testing

import (
	"net"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/guregu/dynamo"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	dynamolib "github.com/veedubyou/midifi/src/shared/lib/dynamo"
)

const (
	RunsTable = "Runs"
)

type run struct {
	ID string `dynamo:"id,hash"`
}

func MakeTestDB(testRegion string) dynamolib.DynamoDBWrapper {
	dbSession := session.Must(session.NewSession())

	config := aws.NewConfig().
		WithCredentials(credentials.NewStaticCredentials(DynamoAccessKeyID, DynamoSecretAccessKey, "")).
		WithEndpoint(DynamoDBHost).
		WithRegion(testRegion)

	db := dynamo.New(dbSession, config)
	return dynamolib.NewDynamoDBWrapper(db)
}

func ResetDB(db dynamolib.DynamoDBWrapper) {
	DeleteAllTables(db)
	CreateAllTables(db)
}

// BeforeSuiteDB skips the suite when no local dynamo is listening.
func BeforeSuiteDB(testRegion string) dynamolib.DynamoDBWrapper {
	if !reachable(DynamoDBHost) {
		Skip("local dynamo is not running at " + DynamoDBHost)
	}

	db := MakeTestDB(testRegion)
	DeleteAllTables(db)
	return db
}

func AfterSuiteDB(db dynamolib.DynamoDBWrapper) {
	if db.DB == nil {
		return
	}

	DeleteAllTables(db)
}

func CreateAllTables(db dynamolib.DynamoDBWrapper) {
	err := db.CreateTable(RunsTable, run{}).Run()
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
}

func DeleteAllTables(db dynamolib.DynamoDBWrapper) {
	tableResults := db.ListTables()
	tableNames := ExpectSuccess(tableResults.All())

	for _, tableName := range tableNames {
		err := db.Table(tableName).DeleteTable().Run()
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
	}
}

func reachable(host string) bool {
	parsed, err := url.Parse(host)
	if err != nil {
		return false
	}

	conn, err := net.DialTimeout("tcp", parsed.Host, time.Second)
	if err != nil {
		return false
	}

	_ = conn.Close()
	return true
}
