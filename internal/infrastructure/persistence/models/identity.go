package models

import (
	"github.com/posterdash/backend/internal/domain/identity"
)

// UserModel is the persistence model for a user
type UserModel struct {
	OrgModel
	Email        string        `gorm:"type:varchar(200);not null;uniqueIndex"`
	Name         string        `gorm:"type:varchar(200)"`
	PasswordHash string        `gorm:"type:varchar(255);not null"`
	Role         identity.Role `gorm:"type:varchar(20);not null"`
	IsActive     bool          `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		OrgEntity:    m.OrgModel.ToDomain(),
		Email:        m.Email,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
		IsActive:     m.IsActive,
	}
}

// FromDomain populates the model from a domain User
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainOrgEntity(u.OrgEntity)
	m.Email = u.Email
	m.Name = u.Name
	m.PasswordHash = u.PasswordHash
	m.Role = u.Role
	m.IsActive = u.IsActive
}
