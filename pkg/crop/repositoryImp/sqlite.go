package repositoryImp

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"farmsight/entities"
	"farmsight/pkg/crop/repository"
)

type sqliteRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.CropRepository { return &sqliteRepo{db: db} }

func (r *sqliteRepo) Create(ctx context.Context, c *entities.CropRecord) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *sqliteRepo) Update(ctx context.Context, c *entities.CropRecord) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *sqliteRepo) FindByID(ctx context.Context, id string) (*entities.CropRecord, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var out entities.CropRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r *sqliteRepo) FindByName(ctx context.Context, name string) (*entities.CropRecord, error) {
	var out entities.CropRecord
	if err := r.db.WithContext(ctx).Where("crop_name = ?", name).First(&out).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r *sqliteRepo) List(ctx context.Context, f repository.ListFilter) ([]entities.CropRecord, error) {
	q := r.db.WithContext(ctx).Model(&entities.CropRecord{})
	if f.Tag != "" {
		q = q.Where("EXISTS (SELECT 1 FROM json_each(crop_records.tags) WHERE json_each.value = ?)", f.Tag)
	}
	if f.Skip > 0 {
		q = q.Offset(f.Skip)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	list := []entities.CropRecord{}
	return list, q.Order("created_at desc, id asc").Find(&list).Error
}

func (r *sqliteRepo) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.CropRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *sqliteRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return repository.ErrInvalidID
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	return err
}
