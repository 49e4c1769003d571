package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	BucketStatusActive   = "active"
	BucketStatusEmptying = "emptying"
	BucketStatusDeleting = "deleting"
)

type Bucket struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" binding:"required,min=3,max=63" gorm:"type:varchar(63);uniqueIndex;not null"`
	Region    string    `json:"region" gorm:"type:varchar(64)"`
	Status    string    `json:"status" gorm:"type:varchar(32);not null;default:active;index"`
	OwnerID   uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Objects []Object `json:"objects,omitempty" gorm:"foreignKey:BucketID;constraint:OnDelete:CASCADE"`
}
