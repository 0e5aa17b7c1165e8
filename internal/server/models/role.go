package models

// Role is a named permission group attached to users.
type Role struct {
	ID   int64
	Name string
}
