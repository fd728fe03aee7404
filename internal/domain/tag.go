package domain

import "errors"

var (
	ErrTagNotFound    = errors.New("tag not found")
	ErrTagNameConflict = errors.New("a tag with this name already exists")
)

type Tag struct {
	ID    string
	Name  string
	Color *string
}
