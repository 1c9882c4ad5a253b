package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/services-psychologists-psychotherapists/backend/internal/model"
)

// FileSender складывает письма в каталог в формате .eml вместо отправки.
// Используется при локальной разработке.
type FileSender struct {
	dir  string
	from string
}

func NewFileSender(dir, from string) *FileSender {
	return &FileSender{dir: dir, from: from}
}

func (s *FileSender) Name() string {
	return "email_file"
}

func (s *FileSender) Supports(recipient model.Participant) bool {
	return recipient.Email != ""
}

func (s *FileSender) Send(_ context.Context, recipient model.Participant, msg Message) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create email dir: %w", err)
	}

	now := time.Now()
	name := fmt.Sprintf("%s-%s.eml", now.Format("20060102-150405"), uuid.NewString())

	if err := os.WriteFile(filepath.Join(s.dir, name), composeEmail(s.from, recipient.Email, msg, now), 0o644); err != nil {
		return fmt.Errorf("write email file: %w", err)
	}
	return nil
}
