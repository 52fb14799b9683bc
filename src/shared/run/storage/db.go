package runstorage

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/guregu/dynamo"
	dynamolib "github.com/veedubyou/midifi/src/shared/lib/dynamo"
	"github.com/veedubyou/midifi/src/shared/lib/mark"
	runentity "github.com/veedubyou/midifi/src/shared/run/entity"
)

const (
	RunsTable = "Runs"
)

var _ runentity.Store = DB{}

type DB struct {
	dynamoDB dynamolib.DynamoDBWrapper
}

func NewDB(dynamoDB dynamolib.DynamoDBWrapper) DB {
	return DB{
		dynamoDB: dynamoDB,
	}
}

func (d DB) GetRun(ctx context.Context, id string) (runentity.RunRecord, error) {
	if id == "" {
		return runentity.RunRecord{}, mark.Message(IDEmptyMark, "No run ID was provided")
	}

	value := dbRun{}
	err := d.dynamoDB.Table(RunsTable).
		Get(idKey, id).
		OneWithContext(ctx, &value)

	if err != nil {
		switch {
		case markers.Is(err, UnmarshalMark):
			return runentity.RunRecord{}, errors.Wrap(err, "Failed to fetch run")
		case errors.Is(err, dynamo.ErrNotFound):
			return runentity.RunRecord{}, mark.Wrap(err, RunNotFound, "Run is not found")
		default:
			return runentity.RunRecord{}, mark.Wrap(err, DefaultErrorMark, "Failed to fetch run")
		}
	}

	record := runentity.RunRecord{}
	err = record.FromMap(value)
	if err != nil {
		return runentity.RunRecord{},
			mark.Wrap(err, UnmarshalMark, "Failed to transform DB map back to run record")
	}

	return record, nil
}

func (d DB) SetRun(ctx context.Context, record runentity.RunRecord) error {
	if record.ID == "" {
		return mark.Message(IDEmptyMark, "Run ID is not defined on the record")
	}

	dbObject, err := record.ToMap()
	if err != nil {
		return mark.Wrap(err,
			MarshalMark,
			"Failed to transform run record to a generic map object")
	}

	err = d.dynamoDB.Table(RunsTable).Put(dbObject).RunWithContext(ctx)
	if err != nil {
		return mark.Wrap(err,
			DefaultErrorMark,
			"Failed to put the run in the DB")
	}

	return nil
}
