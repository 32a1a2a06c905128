// Package gorm provides GORM-based implementations of the store interfaces
// defined in the parent store package.
//
// RequestStore.Update locks the request row with SELECT ... FOR UPDATE inside
// a transaction, so appends from separate processes serialize on the
// database. The unique (request_id, sequence) index on events backs this up.
package gorm
