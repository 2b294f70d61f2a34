package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is a storefront account. Email is fixed at signup.
type User struct {
	BaseModel    `bson:",inline"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" bson:"email"`
	Password     string `gorm:"type:varchar(255);not null" json:"-" bson:"password"` // Hidden from JSON
	Name         string `gorm:"type:varchar(255);not null" json:"name" bson:"name"`
	Phone        string `gorm:"type:varchar(20)" json:"phone" bson:"phone"`
	Address      string `gorm:"type:text" json:"address" bson:"address"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'user'" json:"role" bson:"role"`
	TokenVersion string `gorm:"type:varchar(64);default:''" json:"-" bson:"token_version"` // Rotated on password change
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// HasDeliveryDetails reports whether the profile can receive an order.
func (u *User) HasDeliveryDetails() bool {
	return u.Name != "" && u.Phone != "" && u.Address != ""
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	Phone        string       `json:"phone"`
	Address      string       `json:"address"`
	Role         Role         `json:"role"`
	Capabilities []Capability `json:"capabilities"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Phone:        u.Phone,
		Address:      u.Address,
		Role:         u.Role,
		Capabilities: u.Role.Capabilities(),
		CreatedAt:    u.CreatedAt,
	}
}
