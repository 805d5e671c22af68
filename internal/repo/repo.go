package repo

import (
	"errors"

	"gorm.io/gorm"
)

// Store-level sentinels. The service layer translates these into its own
// error taxonomy before they reach a boundary.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type GormRepo struct {
	DB *gorm.DB
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
