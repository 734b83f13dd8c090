// Package models contains the GORM persistence models. They are kept apart
// from the domain types so that storage tags never leak into the domain.
package models
