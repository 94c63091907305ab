package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"scaledrill/internal/model"
)

// PresetRepo handles MongoDB operations for drill presets
type PresetRepo interface {
	Create(ctx context.Context, preset *model.Preset) error
	GetByCode(ctx context.Context, code string) (*model.Preset, error)
	GetByHostID(ctx context.Context, hostID string) ([]*model.Preset, error)
	Update(ctx context.Context, preset *model.Preset) error
	Delete(ctx context.Context, code string) error
}

type presetRepo struct {
	collection *mongo.Collection
}

// NewPresetRepo creates a new preset repository
func NewPresetRepo(db *mongo.Database) PresetRepo {
	return &presetRepo{
		collection: db.Collection("presets"),
	}
}

// EnsureIndexes creates the unique index on preset codes
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("presets").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "hostId", Value: 1}}},
	})
	return err
}

func (r *presetRepo) Create(ctx context.Context, preset *model.Preset) error {
	now := time.Now()
	preset.CreatedAt = now
	preset.UpdatedAt = now

	doc := presetDoc{
		ID:        primitive.NewObjectID(),
		Code:      preset.Code,
		HostID:    preset.HostID,
		Name:      preset.Name,
		Config:    preset.Config,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return err
	}
	preset.ID = doc.ID.Hex()
	return nil
}

// GetByCode returns nil, nil when no preset has the code
func (r *presetRepo) GetByCode(ctx context.Context, code string) (*model.Preset, error) {
	var raw presetDoc
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&raw)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw.model(), nil
}

func (r *presetRepo) GetByHostID(ctx context.Context, hostID string) ([]*model.Preset, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"hostId": hostID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []presetDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	presets := make([]*model.Preset, 0, len(docs))
	for i := range docs {
		presets = append(presets, docs[i].model())
	}
	return presets, nil
}

func (r *presetRepo) Update(ctx context.Context, preset *model.Preset) error {
	preset.UpdatedAt = time.Now()
	_, err := r.collection.UpdateOne(ctx, bson.M{"code": preset.Code}, bson.M{"$set": bson.M{
		"name":      preset.Name,
		"config":    preset.Config,
		"updatedAt": preset.UpdatedAt,
	}})
	return err
}

func (r *presetRepo) Delete(ctx context.Context, code string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"code": code})
	return err
}

// presetDoc mirrors model.Preset with a native ObjectID
type presetDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Code      string             `bson:"code"`
	HostID    string             `bson:"hostId"`
	Name      string             `bson:"name"`
	Config    model.DrillConfig  `bson:"config"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *presetDoc) model() *model.Preset {
	return &model.Preset{
		ID:        d.ID.Hex(),
		Code:      d.Code,
		HostID:    d.HostID,
		Name:      d.Name,
		Config:    d.Config,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
