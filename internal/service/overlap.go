package service

import (
	"time"

	"github.com/services-psychologists-psychotherapists/backend/internal/model"
)

// OverlapValidator проверяет новый слот до любых изменений в хранилище
type OverlapValidator struct {
	Duration time.Duration
}

func NewOverlapValidator(duration time.Duration) OverlapValidator {
	return OverlapValidator{Duration: duration}
}

// Validate отклоняет слот в прошлом и слот, пересекающий existing.
// existing должен содержать слоты того же специалиста.
func (v OverlapValidator) Validate(now, start time.Time, existing []*model.Slot) error {
	if !start.After(now) {
		return model.ErrPastStartTime
	}

	end := start.Add(v.Duration)
	for _, slot := range existing {
		if slot.StartTime.Equal(start) || slot.Overlaps(start, end) {
			return model.ErrOverlapConflict
		}
	}

	return nil
}
