package repositoryImp

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/google/uuid"

	"farmsight/entities"
	"farmsight/pkg/crop/repository"
)

type mongoRepo struct{ coll *mongo.Collection }

func NewMongo(coll *mongo.Collection) repository.CropRepository { return &mongoRepo{coll: coll} }

func (r *mongoRepo) Create(ctx context.Context, c *entities.CropRecord) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	_, err := r.coll.InsertOne(ctx, c)
	return err
}

func (r *mongoRepo) Update(ctx context.Context, c *entities.CropRecord) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoRepo) FindByID(ctx context.Context, id string) (*entities.CropRecord, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoRepo) FindByName(ctx context.Context, name string) (*entities.CropRecord, error) {
	return r.findOne(ctx, bson.M{"crop_name": name})
}

func (r *mongoRepo) findOne(ctx context.Context, filter bson.M) (*entities.CropRecord, error) {
	var out entities.CropRecord
	if err := r.coll.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *mongoRepo) List(ctx context.Context, f repository.ListFilter) ([]entities.CropRecord, error) {
	filter := bson.M{}
	if f.Tag != "" {
		filter["tags"] = f.Tag
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if f.Skip > 0 {
		opts.SetSkip(int64(f.Skip))
	}
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	list := []entities.CropRecord{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *mongoRepo) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoRepo) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}
