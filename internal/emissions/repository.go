package emissions

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository provides read access to raw activity records and the current
// emission factor table
type Repository interface {
	GetEquipmentRecords(ctx context.Context, companyID string, start, end time.Time) ([]EquipmentRecord, error)
	GetLivestockRecords(ctx context.Context, companyID string, start, end time.Time) ([]LivestockRecord, error)
	GetCropRecords(ctx context.Context, companyID string, start, end time.Time) ([]CropRecord, error)
	GetWasteRecords(ctx context.Context, companyID string, start, end time.Time) ([]WasteRecord, error)

	// GetCurrentFactorTable returns the single current table, or nil when
	// none has been configured yet.
	GetCurrentFactorTable(ctx context.Context) (*EmissionFactorTable, error)

	// GetReductionTargets returns a company's declared targets, most recent
	// year first.
	GetReductionTargets(ctx context.Context, companyID string) ([]ReductionTarget, error)
}

type mongoRepository struct {
	db *mongo.Database
}

// NewRepository creates a document-store backed emissions repository
func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{db: db}
}

func rangeFilter(companyID string, start, end time.Time) bson.M {
	return bson.M{
		"company_id": companyID,
		"date":       bson.M{"$gte": start.UTC(), "$lt": end.UTC()},
	}
}

func (r *mongoRepository) GetEquipmentRecords(ctx context.Context, companyID string, start, end time.Time) ([]EquipmentRecord, error) {
	cur, err := r.db.Collection("equipment_records").Find(ctx, rangeFilter(companyID, start, end))
	if err != nil {
		return nil, err
	}
	var records []EquipmentRecord
	if err := cur.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *mongoRepository) GetLivestockRecords(ctx context.Context, companyID string, start, end time.Time) ([]LivestockRecord, error) {
	cur, err := r.db.Collection("livestock_records").Find(ctx, rangeFilter(companyID, start, end))
	if err != nil {
		return nil, err
	}
	var records []LivestockRecord
	if err := cur.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *mongoRepository) GetCropRecords(ctx context.Context, companyID string, start, end time.Time) ([]CropRecord, error) {
	cur, err := r.db.Collection("crop_records").Find(ctx, rangeFilter(companyID, start, end))
	if err != nil {
		return nil, err
	}
	var records []CropRecord
	if err := cur.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *mongoRepository) GetWasteRecords(ctx context.Context, companyID string, start, end time.Time) ([]WasteRecord, error) {
	cur, err := r.db.Collection("waste_records").Find(ctx, rangeFilter(companyID, start, end))
	if err != nil {
		return nil, err
	}
	var records []WasteRecord
	if err := cur.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *mongoRepository) GetReductionTargets(ctx context.Context, companyID string) ([]ReductionTarget, error) {
	opts := options.Find().SetSort(bson.D{{Key: "year", Value: -1}})
	cur, err := r.db.Collection("reduction_targets").Find(ctx, bson.M{"company_id": companyID}, opts)
	if err != nil {
		return nil, err
	}
	var targets []ReductionTarget
	if err := cur.All(ctx, &targets); err != nil {
		return nil, err
	}
	return targets, nil
}

func (r *mongoRepository) GetCurrentFactorTable(ctx context.Context) (*EmissionFactorTable, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	var table EmissionFactorTable
	err := r.db.Collection("emission_factors").FindOne(ctx, bson.M{}, opts).Decode(&table)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &table, nil
}
