package notify

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/services-psychologists-psychotherapists/backend/internal/model"
)

// EmailConfig параметры SMTP сервера
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender отправляет письма через SMTP (STARTTLS, если сервер поддерживает)
type SMTPSender struct {
	addr     string
	from     string
	auth     smtp.Auth
	sendMail sendMailFunc
}

func NewSMTPSender(cfg EmailConfig) *SMTPSender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTPSender{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from:     cfg.From,
		auth:     auth,
		sendMail: smtp.SendMail,
	}
}

func (s *SMTPSender) Name() string {
	return "email"
}

func (s *SMTPSender) Supports(recipient model.Participant) bool {
	return recipient.Email != ""
}

func (s *SMTPSender) Send(ctx context.Context, recipient model.Participant, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body := composeEmail(s.from, recipient.Email, msg, time.Now())
	if err := s.sendMail(s.addr, s.auth, s.from, []string{recipient.Email}, body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func composeEmail(from, to string, msg Message, date time.Time) []byte {
	var buf bytes.Buffer

	buf.WriteString("From: " + from + "\r\n")
	buf.WriteString("To: " + to + "\r\n")
	buf.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	buf.WriteString("Date: " + date.Format(time.RFC1123Z) + "\r\n")
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	buf.WriteString("\r\n")

	return buf.Bytes()
}
