package meeting

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/services-psychologists-psychotherapists/backend/internal/model"
	"golang.org/x/oauth2"
)

// accountCredentials получает токен Zoom Server-to-Server OAuth
// (grant_type=account_credentials). clientcredentials из x/oauth2
// не позволяет задать свой grant_type, поэтому обмен выполняется вручную.
type accountCredentials struct {
	client       *http.Client
	tokenURL     string
	accountID    string
	clientID     string
	clientSecret string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (c *accountCredentials) Token() (*oauth2.Token, error) {
	form := url.Values{
		"grant_type": {"account_credentials"},
		"account_id": {c.accountID},
	}

	req, err := http.NewRequest(http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: token request: %v", model.ErrProvisioningUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: token endpoint answered %d", model.ErrProvisioningUnavailable, resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode token: %v", model.ErrProvisioningUnavailable, err)
	}

	if body.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response has no access_token", model.ErrProvisioningUnavailable)
	}

	token := &oauth2.Token{
		AccessToken: body.AccessToken,
		TokenType:   "Bearer",
	}
	if body.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	}

	return token, nil
}
