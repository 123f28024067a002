package mongorepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/campusconnect/core/lostfound"
)

type lostFoundDoc struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Type        string    `bson:"type"`
	Location    string    `bson:"location"`
	Contact     string    `bson:"contact"`
	Date        time.Time `bson:"date"`
	Status      string    `bson:"status"`
	UserID      string    `bson:"user_id"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (d lostFoundDoc) item() lostfound.Item {
	return lostfound.Item{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Type:        d.Type,
		Location:    d.Location,
		Contact:     d.Contact,
		Date:        d.Date.UTC(),
		Status:      d.Status,
		UserID:      d.UserID,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

type lostFoundRepository struct {
	coll *mongo.Collection
}

var _ lostfound.Repository = (*lostFoundRepository)(nil) // interface compliance check

func NewLostFoundRepository(db *mongo.Database) lostfound.Repository {
	return &lostFoundRepository{coll: db.Collection(lostFoundCollection)}
}

func (repo *lostFoundRepository) CreateItem(ctx context.Context, it lostfound.Item) (lostfound.Item, error) {
	it.ID = uuid.New().String()
	d := lostFoundDoc{
		ID:          it.ID,
		Title:       it.Title,
		Description: it.Description,
		Type:        it.Type,
		Location:    it.Location,
		Contact:     it.Contact,
		Date:        it.Date.UTC(),
		Status:      it.Status,
		UserID:      it.UserID,
		CreatedAt:   it.CreatedAt.UTC(),
	}
	if _, err := repo.coll.InsertOne(ctx, d); err != nil {
		return lostfound.Item{}, errors.Wrap(err, "inserting lost & found item")
	}
	return it, nil
}

func (repo *lostFoundRepository) QueryItems(ctx context.Context) ([]lostfound.Item, error) {
	cur, err := repo.coll.Find(ctx, bson.M{}, newestFirst)
	if err != nil {
		return nil, errors.Wrap(err, "querying lost & found items")
	}
	var docs []lostFoundDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding lost & found items")
	}
	items := make([]lostfound.Item, len(docs))
	for i, d := range docs {
		items[i] = d.item()
	}
	return items, nil
}

func (repo *lostFoundRepository) UpdateItemStatus(ctx context.Context, itemID, userID, status string) (lostfound.Item, error) {
	var d lostFoundDoc
	err := repo.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": itemID, "user_id": userID},
		bson.M{"$set": bson.M{"status": status}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		return lostfound.Item{}, trapNoDocumentsErr(err, lostfound.ErrNotFound, "updating lost & found item status")
	}
	return d.item(), nil
}

func (repo *lostFoundRepository) DeleteItem(ctx context.Context, itemID, userID string) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": itemID, "user_id": userID})
	if err != nil {
		return errors.Wrap(err, "deleting lost & found item")
	}
	if res.DeletedCount == 0 {
		return lostfound.ErrNotFound
	}
	return nil
}
