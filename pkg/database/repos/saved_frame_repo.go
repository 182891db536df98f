package repos

import (
	"github.com/tauraamui/framerelay/pkg/database/models"
	"github.com/tauraamui/xerror"
)

type SavedFrameRepository struct {
	DB GormWrapper
}

func (r *SavedFrameRepository) Create(frame *models.SavedFrame) error {
	return r.DB.Create(frame).Error()
}

// List returns saved frames in sequence order. A limit below one lists all.
func (r *SavedFrameRepository) List(limit int) ([]models.SavedFrame, error) {
	frames := []models.SavedFrame{}
	query := r.DB.Order("sequence asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&frames).Error(); err != nil {
		return nil, xerror.Errorf("unable to list saved frames: %w", err)
	}
	return frames, nil
}

func (r *SavedFrameRepository) FindBySequence(sequence int) (models.SavedFrame, error) {
	frame := models.SavedFrame{}
	if err := r.DB.Where("sequence = ?", sequence).First(&frame).Error(); err != nil {
		return frame, xerror.Errorf("saved frame of sequence %d not found", sequence)
	}

	return frame, nil
}
