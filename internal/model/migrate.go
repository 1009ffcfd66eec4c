package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей обменного ядра.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Slot{},
		&SwapRequest{},
		&Event{},
	)
}
