package mongorepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/campusconnect/core/studygroup"
)

type studyGroupDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Topic       string    `bson:"topic"`
	Description string    `bson:"description"`
	MeetingTime string    `bson:"meeting_time"`
	MaxMembers  int       `bson:"max_members"`
	OwnerID     string    `bson:"owner_id"`
	Members     []string  `bson:"members"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (d studyGroupDoc) group() studygroup.Group {
	return studygroup.Group{
		ID:          d.ID,
		Name:        d.Name,
		Topic:       d.Topic,
		Description: d.Description,
		MeetingTime: d.MeetingTime,
		MaxMembers:  d.MaxMembers,
		OwnerID:     d.OwnerID,
		Members:     nonNil(d.Members),
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

type studyGroupRepository struct {
	coll *mongo.Collection
}

var _ studygroup.Repository = (*studyGroupRepository)(nil) // interface compliance check

func NewStudyGroupRepository(db *mongo.Database) studygroup.Repository {
	return &studyGroupRepository{coll: db.Collection(studyGroupsCollection)}
}

func (repo *studyGroupRepository) CreateGroup(ctx context.Context, g studygroup.Group) (studygroup.Group, error) {
	g.ID = uuid.New().String()
	d := studyGroupDoc{
		ID:          g.ID,
		Name:        g.Name,
		Topic:       g.Topic,
		Description: g.Description,
		MeetingTime: g.MeetingTime,
		MaxMembers:  g.MaxMembers,
		OwnerID:     g.OwnerID,
		Members:     nonNil(g.Members),
		CreatedAt:   g.CreatedAt.UTC(),
	}
	if _, err := repo.coll.InsertOne(ctx, d); err != nil {
		return studygroup.Group{}, errors.Wrap(err, "inserting study group")
	}
	return g, nil
}

func (repo *studyGroupRepository) QueryGroups(ctx context.Context) ([]studygroup.Group, error) {
	cur, err := repo.coll.Find(ctx, bson.M{}, newestFirst)
	if err != nil {
		return nil, errors.Wrap(err, "querying study groups")
	}
	var docs []studyGroupDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding study groups")
	}
	groups := make([]studygroup.Group, len(docs))
	for i, d := range docs {
		groups[i] = d.group()
	}
	return groups, nil
}

func (repo *studyGroupRepository) GetGroup(ctx context.Context, id string) (studygroup.Group, error) {
	var d studyGroupDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return studygroup.Group{}, trapNoDocumentsErr(err, studygroup.ErrNotFound, "finding study group")
	}
	return d.group(), nil
}

// AddMember checks membership and capacity in the update filter so the join is atomic.
func (repo *studyGroupRepository) AddMember(ctx context.Context, groupID, userID string) error {
	filter := bson.M{
		"_id":     groupID,
		"members": bson.M{"$ne": userID},
		"$expr":   bson.M{"$lt": bson.A{bson.M{"$size": "$members"}, "$max_members"}},
	}
	res, err := repo.coll.UpdateOne(ctx, filter, bson.M{"$push": bson.M{"members": userID}})
	if err != nil {
		return errors.Wrap(err, "adding study group member")
	}
	if res.MatchedCount > 0 {
		return nil
	}

	g, err := repo.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if g.IsMember(userID) {
		return studygroup.ErrAlreadyMember
	}
	return studygroup.ErrFull
}

func (repo *studyGroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	filter := bson.M{"_id": groupID, "members": userID}
	res, err := repo.coll.UpdateOne(ctx, filter, bson.M{"$pull": bson.M{"members": userID}})
	if err != nil {
		return errors.Wrap(err, "removing study group member")
	}
	if res.MatchedCount == 0 {
		if _, err = repo.GetGroup(ctx, groupID); err != nil {
			return err
		}
		return studygroup.ErrNotMember
	}
	return nil
}

func (repo *studyGroupRepository) DeleteGroup(ctx context.Context, groupID, ownerID string) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": groupID, "owner_id": ownerID})
	if err != nil {
		return errors.Wrap(err, "deleting study group")
	}
	if res.DeletedCount == 0 {
		return studygroup.ErrNotOwned
	}
	return nil
}
