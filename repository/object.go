package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blobgate/blobgate/entity"
)

type ObjectRepository struct {
	db *gorm.DB
}

func NewObjectRepository(db *gorm.DB) *ObjectRepository {
	return &ObjectRepository{db: db}
}

func (r *ObjectRepository) Create(object *entity.Object) error {
	return r.db.Create(object).Error
}

func (r *ObjectRepository) CreateBatch(objects []entity.Object) error {
	if len(objects) == 0 {
		return nil
	}
	return r.db.Create(&objects).Error
}

func (r *ObjectRepository) FindByID(id uuid.UUID) (*entity.Object, error) {
	var object entity.Object
	err := r.db.Where("id = ?", id).First(&object).Error
	if err != nil {
		return nil, err
	}
	return &object, nil
}

func (r *ObjectRepository) FindByBucketID(bucketID uuid.UUID) ([]entity.Object, error) {
	var objects []entity.Object
	err := r.db.Where("bucket_id = ?", bucketID).Order("key ASC").Find(&objects).Error
	if err != nil {
		return nil, err
	}
	return objects, nil
}

func (r *ObjectRepository) FindByBucketIDAndKey(bucketID uuid.UUID, key string) (*entity.Object, error) {
	var object entity.Object
	err := r.db.Where("bucket_id = ? AND key = ?", bucketID, key).First(&object).Error
	if err != nil {
		return nil, err
	}
	return &object, nil
}

func (r *ObjectRepository) CountByBucketID(bucketID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Object{}).Where("bucket_id = ?", bucketID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ObjectRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&entity.Object{}, "id = ?", id).Error
}

func (r *ObjectRepository) DeleteByBucketIDAndKey(bucketID uuid.UUID, key string) error {
	return r.db.Delete(&entity.Object{}, "bucket_id = ? AND key = ?", bucketID, key).Error
}

func (r *ObjectRepository) DeleteByBucketID(bucketID uuid.UUID) error {
	return r.db.Delete(&entity.Object{}, "bucket_id = ?", bucketID).Error
}
