// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain entities so the domain layer stays free of
// ORM tags; each model carries ToDomain/FromDomain mappers.
//
// JSON columns (user settings, notification metadata, sync event ids) use
// gorm's json serializer so the same models work on PostgreSQL (jsonb) and
// on SQLite in tests.
package models
