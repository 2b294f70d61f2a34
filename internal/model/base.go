package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel handles the string UUID primary key and timestamps shared by every document.
type BaseModel struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NewID returns a fresh document identifier.
func NewID() string {
	return uuid.NewString()
}

// EnsureID assigns an identifier when none was set by the caller.
func (base *BaseModel) EnsureID() {
	if base.ID == "" {
		base.ID = NewID()
	}
}

// BeforeCreate generates the UUID for GORM inserts.
func (base *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	base.EnsureID()
	return
}
