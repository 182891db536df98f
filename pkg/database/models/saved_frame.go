package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func init() {
	registerForAutomigration(&SavedFrame{})
}

// SavedFrame indexes one PNG written by the frame sink.
type SavedFrame struct {
	gorm.Model
	UUID     string
	Sequence int `gorm:"index"`
	FileName string
	Path     string
	Stamp    time.Time
	Width    int
	Height   int
	Encoding string
}

func (f *SavedFrame) BeforeCreate(tx *gorm.DB) error {
	if len(f.UUID) == 0 {
		f.UUID = uuid.NewString()
	}
	return nil
}
