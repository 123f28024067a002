package mongorepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/campusconnect/core/examtrend"
)

type examRecordDoc struct {
	ID         string    `bson:"_id"`
	UserID     string    `bson:"user_id"`
	Subject    string    `bson:"subject"`
	Topic      string    `bson:"topic"`
	Difficulty string    `bson:"difficulty"`
	StudyHours float64   `bson:"study_hours"`
	Grade      float64   `bson:"grade"`
	Date       time.Time `bson:"date"`
	CreatedAt  time.Time `bson:"created_at"`
}

func (d examRecordDoc) record() examtrend.Record {
	return examtrend.Record{
		ID:         d.ID,
		UserID:     d.UserID,
		Subject:    d.Subject,
		Topic:      d.Topic,
		Difficulty: d.Difficulty,
		StudyHours: d.StudyHours,
		Grade:      d.Grade,
		Date:       d.Date.UTC(),
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

type examRecordRepository struct {
	coll *mongo.Collection
}

var _ examtrend.Repository = (*examRecordRepository)(nil) // interface compliance check

func NewExamRecordRepository(db *mongo.Database) examtrend.Repository {
	return &examRecordRepository{coll: db.Collection(examRecordsCollection)}
}

// newExamRecordDoc gives rec a new ID.
func newExamRecordDoc(rec *examtrend.Record) examRecordDoc {
	rec.ID = uuid.New().String()
	return examRecordDoc{
		ID:         rec.ID,
		UserID:     rec.UserID,
		Subject:    rec.Subject,
		Topic:      rec.Topic,
		Difficulty: rec.Difficulty,
		StudyHours: rec.StudyHours,
		Grade:      rec.Grade,
		Date:       rec.Date.UTC(),
		CreatedAt:  rec.CreatedAt.UTC(),
	}
}

func (repo *examRecordRepository) CreateRecord(ctx context.Context, rec examtrend.Record) (examtrend.Record, error) {
	d := newExamRecordDoc(&rec)
	if _, err := repo.coll.InsertOne(ctx, d); err != nil {
		return examtrend.Record{}, errors.Wrap(err, "inserting exam record")
	}
	return rec, nil
}

// CreateRecords inserts recs in order; when the batch fails, the documents already
// inserted are deleted again.
func (repo *examRecordRepository) CreateRecords(ctx context.Context, recs []examtrend.Record) ([]examtrend.Record, error) {
	if len(recs) == 0 {
		return []examtrend.Record{}, nil
	}
	created := make([]examtrend.Record, len(recs))
	docs := make([]interface{}, len(recs))
	ids := make([]string, len(recs))
	for i, rec := range recs {
		docs[i] = newExamRecordDoc(&rec)
		created[i] = rec
		ids[i] = rec.ID
	}

	if _, err := repo.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if _, delErr := repo.coll.DeleteMany(cleanupCtx, bson.M{"_id": bson.M{"$in": ids}}); delErr != nil {
			return nil, errors.Wrapf(err, "inserting exam records (cleanup failed: %v)", delErr)
		}
		return nil, errors.Wrap(err, "inserting exam records")
	}
	return created, nil
}

func (repo *examRecordRepository) QueryRecords(ctx context.Context, userID string) ([]examtrend.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}})
	cur, err := repo.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying exam records")
	}
	var docs []examRecordDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding exam records")
	}
	recs := make([]examtrend.Record, len(docs))
	for i, d := range docs {
		recs[i] = d.record()
	}
	return recs, nil
}
