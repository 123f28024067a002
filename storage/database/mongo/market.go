package mongorepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/campusconnect/core/market"
)

type listingDoc struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Price       float64   `bson:"price"`
	Condition   string    `bson:"condition"`
	Category    string    `bson:"category"`
	Contact     string    `bson:"contact"`
	Images      []string  `bson:"images"`
	UserID      string    `bson:"user_id"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (d listingDoc) listing() market.Listing {
	return market.Listing{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Price:       d.Price,
		Condition:   d.Condition,
		Category:    d.Category,
		Contact:     d.Contact,
		Images:      nonNil(d.Images),
		UserID:      d.UserID,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type listingRepository struct {
	coll *mongo.Collection
}

var _ market.Repository = (*listingRepository)(nil) // interface compliance check

func NewListingRepository(db *mongo.Database) market.Repository {
	return &listingRepository{coll: db.Collection(listingsCollection)}
}

var returnAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)

func (repo *listingRepository) CreateListing(ctx context.Context, l market.Listing) (market.Listing, error) {
	l.ID = uuid.New().String()
	d := listingDoc{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Condition:   l.Condition,
		Category:    l.Category,
		Contact:     l.Contact,
		Images:      nonNil(l.Images),
		UserID:      l.UserID,
		CreatedAt:   l.CreatedAt.UTC(),
		UpdatedAt:   l.UpdatedAt.UTC(),
	}
	if _, err := repo.coll.InsertOne(ctx, d); err != nil {
		return market.Listing{}, errors.Wrap(err, "inserting listing")
	}
	return l, nil
}

func (repo *listingRepository) QueryListings(ctx context.Context) ([]market.Listing, error) {
	cur, err := repo.coll.Find(ctx, bson.M{}, newestFirst)
	if err != nil {
		return nil, errors.Wrap(err, "querying listings")
	}
	var docs []listingDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding listings")
	}
	listings := make([]market.Listing, len(docs))
	for i, d := range docs {
		listings[i] = d.listing()
	}
	return listings, nil
}

func (repo *listingRepository) GetListing(ctx context.Context, id, userID string) (market.Listing, error) {
	var d listingDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&d); err != nil {
		return market.Listing{}, trapNoDocumentsErr(err, market.ErrNotFound, "finding listing")
	}
	return d.listing(), nil
}

func (repo *listingRepository) UpdateListing(ctx context.Context, l market.Listing) (market.Listing, error) {
	update := bson.M{"$set": bson.M{
		"title":       l.Title,
		"description": l.Description,
		"price":       l.Price,
		"condition":   l.Condition,
		"category":    l.Category,
		"contact":     l.Contact,
		"updated_at":  l.UpdatedAt.UTC(),
	}}
	var d listingDoc
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": l.ID, "user_id": l.UserID}, update, returnAfter).Decode(&d)
	if err != nil {
		return market.Listing{}, trapNoDocumentsErr(err, market.ErrNotFound, "updating listing")
	}
	return d.listing(), nil
}

func (repo *listingRepository) AddImages(ctx context.Context, id, userID string, paths []string) (market.Listing, error) {
	update := bson.M{"$push": bson.M{"images": bson.M{"$each": paths}}}
	var d listingDoc
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": id, "user_id": userID}, update, returnAfter).Decode(&d)
	if err != nil {
		return market.Listing{}, trapNoDocumentsErr(err, market.ErrNotFound, "adding listing images")
	}
	return d.listing(), nil
}

func (repo *listingRepository) DeleteListing(ctx context.Context, id, userID string) (market.Listing, error) {
	var d listingDoc
	if err := repo.coll.FindOneAndDelete(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&d); err != nil {
		return market.Listing{}, trapNoDocumentsErr(err, market.ErrNotFound, "deleting listing")
	}
	return d.listing(), nil
}
