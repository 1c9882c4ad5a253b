package meeting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/services-psychologists-psychotherapists/backend/internal/model"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL  = "https://api.zoom.us/v2"
	DefaultTokenURL = "https://zoom.us/oauth/token"

	scheduledMeeting = 2
	startTimeLayout  = "2006-01-02T15:04:05"
)

// Config параметры доступа к Zoom API
type Config struct {
	AccountID    string
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string
	Timezone     string
	Topic        string
	Timeout      time.Duration
}

// Enabled сообщает, заданы ли учётные данные
func (c Config) Enabled() bool {
	return c.AccountID != "" && c.ClientID != "" && c.ClientSecret != ""
}

// ZoomProvisioner создаёт запланированную встречу Zoom и возвращает
// join_url для клиента и start_url для специалиста. Одна попытка на вызов.
type ZoomProvisioner struct {
	client   *http.Client
	baseURL  string
	location *time.Location
	timezone string
	topic    string
	logger   *zap.Logger
}

type meetingRequest struct {
	Topic     string `json:"topic"`
	Type      int    `json:"type"`
	StartTime string `json:"start_time"`
	Duration  int    `json:"duration"`
	Timezone  string `json:"timezone"`
}

type meetingResponse struct {
	ID       int64  `json:"id"`
	JoinURL  string `json:"join_url"`
	StartURL string `json:"start_url"`
}

func NewZoomProvisioner(cfg Config, logger *zap.Logger) (*ZoomProvisioner, error) {
	if !cfg.Enabled() {
		return nil, errors.New("zoom credentials are not configured")
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load zoom timezone %q: %w", cfg.Timezone, err)
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	source := &accountCredentials{
		client:       httpClient,
		tokenURL:     tokenURL,
		accountID:    cfg.AccountID,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
	}

	// Токен кэшируется до истечения срока
	client := oauth2.NewClient(
		context.WithValue(context.Background(), oauth2.HTTPClient, httpClient),
		oauth2.ReuseTokenSource(nil, source),
	)
	client.Timeout = cfg.Timeout

	return &ZoomProvisioner{
		client:   client,
		baseURL:  baseURL,
		location: location,
		timezone: cfg.Timezone,
		topic:    cfg.Topic,
		logger:   logger,
	}, nil
}

// Provision создаёт встречу. Любой ответ кроме 201 и некорректное тело
// возвращаются как model.ErrProvisioningUnavailable.
func (p *ZoomProvisioner) Provision(ctx context.Context, start time.Time, duration time.Duration) (string, string, error) {
	payload, err := json.Marshal(meetingRequest{
		Topic:     p.topic,
		Type:      scheduledMeeting,
		StartTime: start.In(p.location).Format(startTimeLayout),
		Duration:  int(duration.Minutes()),
		Timezone:  p.timezone,
	})
	if err != nil {
		return "", "", fmt.Errorf("encode meeting: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/users/me/meetings", bytes.NewReader(payload))
	if err != nil {
		return "", "", fmt.Errorf("build meeting request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, model.ErrProvisioningUnavailable) {
			return "", "", err
		}
		return "", "", fmt.Errorf("%w: create meeting: %v", model.ErrProvisioningUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", "", fmt.Errorf("%w: zoom answered %d", model.ErrProvisioningUnavailable, resp.StatusCode)
	}

	var meeting meetingResponse
	if err := json.NewDecoder(resp.Body).Decode(&meeting); err != nil {
		return "", "", fmt.Errorf("%w: decode meeting: %v", model.ErrProvisioningUnavailable, err)
	}

	if meeting.JoinURL == "" || meeting.StartURL == "" {
		return "", "", fmt.Errorf("%w: meeting response has no links", model.ErrProvisioningUnavailable)
	}

	p.logger.Debug("Zoom meeting created",
		zap.Int64("meeting_id", meeting.ID),
		zap.Time("start_time", start),
	)

	return meeting.JoinURL, meeting.StartURL, nil
}

// Disabled используется без учётных данных Zoom: сессии остаются без ссылок
type Disabled struct{}

func (Disabled) Provision(context.Context, time.Time, time.Duration) (string, string, error) {
	return "", "", fmt.Errorf("%w: zoom is not configured", model.ErrProvisioningUnavailable)
}
