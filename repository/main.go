package repository

import (
	"github.com/blobgate/blobgate/infra"
	"gorm.io/gorm"
)

type Repository struct {
	BucketRepo *BucketRepository
	ObjectRepo *ObjectRepository
}

var repository *Repository

func InitRepository(infra *infra.Infra) *Repository {
	repository = &Repository{
		BucketRepo: NewBucketRepository(infra.Postgres.DB),
		ObjectRepo: NewObjectRepository(infra.Postgres.DB),
	}
	return repository
}

func GetRepository() *Repository {
	if repository == nil {
		panic("repository not initialized")
	}
	return repository
}

func (r *Repository) BeginTransaction(db *gorm.DB) *gorm.DB {
	return db.Begin()
}

// WithTransaction rebinds every repo onto tx so a controller can batch
// catalog writes and roll them back together.
func (r *Repository) WithTransaction(tx *gorm.DB) *Repository {
	return &Repository{
		BucketRepo: NewBucketRepository(tx),
		ObjectRepo: NewObjectRepository(tx),
	}
}
