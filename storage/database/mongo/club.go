package mongorepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/campusconnect/core/club"
)

type clubDoc struct {
	ID          string            `bson:"_id"`
	Name        string            `bson:"name"`
	Description string            `bson:"description"`
	OwnerID     string            `bson:"owner_id"`
	SocialLinks map[string]string `bson:"social_links"`
	Members     []string          `bson:"members"`
	CreatedAt   time.Time         `bson:"created_at"`
}

func (d clubDoc) club() club.Club {
	links := d.SocialLinks
	if links == nil {
		links = make(map[string]string)
	}
	return club.Club{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		OwnerID:     d.OwnerID,
		SocialLinks: links,
		Members:     nonNil(d.Members),
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

type clubRepository struct {
	coll *mongo.Collection
}

var _ club.Repository = (*clubRepository)(nil) // interface compliance check

func NewClubRepository(db *mongo.Database) club.Repository {
	return &clubRepository{coll: db.Collection(clubsCollection)}
}

func (repo *clubRepository) CreateClub(ctx context.Context, c club.Club) (club.Club, error) {
	c.ID = uuid.New().String()
	d := clubDoc{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		OwnerID:     c.OwnerID,
		SocialLinks: c.SocialLinks,
		Members:     nonNil(c.Members),
		CreatedAt:   c.CreatedAt.UTC(),
	}
	if _, err := repo.coll.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return club.Club{}, club.ErrNameExists
		}
		return club.Club{}, errors.Wrap(err, "inserting club")
	}
	return c, nil
}

func (repo *clubRepository) QueryClubs(ctx context.Context) ([]club.Club, error) {
	cur, err := repo.coll.Find(ctx, bson.M{}, newestFirst)
	if err != nil {
		return nil, errors.Wrap(err, "querying clubs")
	}
	var docs []clubDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding clubs")
	}
	clubs := make([]club.Club, len(docs))
	for i, d := range docs {
		clubs[i] = d.club()
	}
	return clubs, nil
}

func (repo *clubRepository) GetClub(ctx context.Context, id string) (club.Club, error) {
	var d clubDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return club.Club{}, trapNoDocumentsErr(err, club.ErrNotFound, "finding club")
	}
	return d.club(), nil
}

func (repo *clubRepository) AddMember(ctx context.Context, clubID, userID string) error {
	filter := bson.M{"_id": clubID, "members": bson.M{"$ne": userID}}
	res, err := repo.coll.UpdateOne(ctx, filter, bson.M{"$addToSet": bson.M{"members": userID}})
	if err != nil {
		return errors.Wrap(err, "adding club member")
	}
	if res.MatchedCount == 0 {
		if _, err = repo.GetClub(ctx, clubID); err != nil {
			return err
		}
		return club.ErrAlreadyMember
	}
	return nil
}

func (repo *clubRepository) RemoveMember(ctx context.Context, clubID, userID string) error {
	filter := bson.M{"_id": clubID, "members": userID}
	res, err := repo.coll.UpdateOne(ctx, filter, bson.M{"$pull": bson.M{"members": userID}})
	if err != nil {
		return errors.Wrap(err, "removing club member")
	}
	if res.MatchedCount == 0 {
		if _, err = repo.GetClub(ctx, clubID); err != nil {
			return err
		}
		return club.ErrNotMember
	}
	return nil
}
