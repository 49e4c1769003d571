package entity

import (
	"time"

	"github.com/google/uuid"
)

// Object is the catalog record of a stored object. The storage backend
// holds the bytes; this row holds what the gateway knew at upload time.
type Object struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	BucketID     uuid.UUID `json:"bucket_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_bucket_key"`
	Key          string    `json:"key" gorm:"type:varchar(1024);not null;uniqueIndex:idx_bucket_key"`
	OriginalName string    `json:"original_name" gorm:"type:varchar(1024)"`
	SizeBytes    int64     `json:"size_bytes" gorm:"not null"`
	ContentType  string    `json:"content_type" gorm:"type:varchar(255)"`
	ETag         string    `json:"etag" gorm:"type:varchar(255)"`
	Locator      string    `json:"locator" gorm:"type:varchar(2048)"`
	UploaderID   uuid.UUID `json:"uploader_id" gorm:"type:uuid;index"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Bucket *Bucket `json:"bucket,omitempty" gorm:"foreignKey:BucketID;constraint:OnDelete:CASCADE"`
}
