package repository

import (
	"context"
	"fmt"

	"github.com/services-psychologists-psychotherapists/backend/internal/model"
	"github.com/services-psychologists-psychotherapists/backend/internal/repository/base"
)

// ParticipantRepository читает контактные данные пользователей.
// Сами пользователи создаются сервисом регистрации.
type ParticipantRepository struct {
	db base.DBTX
}

func NewParticipantRepository(db base.DBTX) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// GetParticipant получает участника по ID пользователя
func (r *ParticipantRepository) GetParticipant(ctx context.Context, userID int64, role model.Role) (*model.Participant, error) {
	query := `
		SELECT id, first_name, email, telegram_chat_id, locale
		FROM users
		WHERE id = $1
	`

	participant := model.Participant{Role: role}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&participant.UserID,
		&participant.FirstName,
		&participant.Email,
		&participant.TelegramChatID,
		&participant.Locale,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}

	return &participant, nil
}
