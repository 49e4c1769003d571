package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blobgate/blobgate/entity"
)

type BucketRepository struct {
	db *gorm.DB
}

func NewBucketRepository(db *gorm.DB) *BucketRepository {
	return &BucketRepository{db: db}
}

func (r *BucketRepository) Create(bucket *entity.Bucket) error {
	return r.db.Create(bucket).Error
}

func (r *BucketRepository) FindByID(id uuid.UUID) (*entity.Bucket, error) {
	var bucket entity.Bucket
	err := r.db.Where("id = ?", id).First(&bucket).Error
	if err != nil {
		return nil, err
	}
	return &bucket, nil
}

func (r *BucketRepository) FindByName(name string) (*entity.Bucket, error) {
	var bucket entity.Bucket
	err := r.db.Where("name = ?", name).First(&bucket).Error
	if err != nil {
		return nil, err
	}
	return &bucket, nil
}

func (r *BucketRepository) FindByOwnerID(ownerID uuid.UUID) ([]entity.Bucket, error) {
	var buckets []entity.Bucket
	err := r.db.Where("owner_id = ?", ownerID).Order("created_at ASC").Find(&buckets).Error
	if err != nil {
		return nil, err
	}
	return buckets, nil
}

func (r *BucketRepository) ExistsByName(name string) (bool, error) {
	var count int64
	err := r.db.Model(&entity.Bucket{}).Where("name = ?", name).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *BucketRepository) UpdateStatus(id uuid.UUID, status string) error {
	return r.db.Model(&entity.Bucket{}).Where("id = ?", id).Update("status", status).Error
}

func (r *BucketRepository) DeleteByID(id uuid.UUID) error {
	return r.db.Where("id = ?", id).Delete(&entity.Bucket{}).Error
}

func (r *BucketRepository) DeleteByName(name string) error {
	return r.db.Where("name = ?", name).Delete(&entity.Bucket{}).Error
}
