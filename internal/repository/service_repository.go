package repository

import (
	"context"
	"fmt"

	"github.com/services-psychologists-psychotherapists/backend/internal/model"
	"github.com/services-psychologists-psychotherapists/backend/internal/repository/base"
)

// ServiceRepository услуги специалистов
type ServiceRepository struct {
	db base.DBTX
}

func NewServiceRepository(db base.DBTX) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// GetByPractitionerID получает все услуги специалиста в порядке создания
func (r *ServiceRepository) GetByPractitionerID(ctx context.Context, practitionerID int64) ([]*model.PractitionerService, error) {
	query := `
		SELECT id, practitioner_id, title, price
		FROM practitioner_services
		WHERE practitioner_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, practitionerID)
	if err != nil {
		return nil, fmt.Errorf("get services by practitioner: %w", err)
	}
	defer rows.Close()

	var services []*model.PractitionerService
	for rows.Next() {
		var service model.PractitionerService
		err := rows.Scan(
			&service.ID,
			&service.PractitionerID,
			&service.Title,
			&service.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, &service)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get services by practitioner: %w", err)
	}

	return services, nil
}

// PriceFor возвращает цену первой услуги специалиста.
// Пока у специалиста одна услуга; многоуровневый прайс заменит эту реализацию.
func (r *ServiceRepository) PriceFor(ctx context.Context, practitionerID int64) (int, error) {
	services, err := r.GetByPractitionerID(ctx, practitionerID)
	if err != nil {
		return 0, err
	}

	if len(services) == 0 {
		return 0, model.ErrPriceNotFound
	}

	return services[0].Price, nil
}
