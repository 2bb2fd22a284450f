// Package models contains GORM persistence models. Domain entities carry no
// ORM tags; each model converts with ToDomain and FromDomain.
package models
