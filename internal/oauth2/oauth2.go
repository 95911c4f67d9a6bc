// oauth2 — клиент внешних identity-провайдеров (authorization code flow).
// Сервисный слой видит только интерфейс Service: redirect URL и обмен
// кода на профиль пользователя.
package oauth2

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pribylovaa/go-identity-service/internal/config"
	"github.com/pribylovaa/go-identity-service/internal/models"

	xoauth2 "golang.org/x/oauth2"
)

var (
	// ErrUnknownProvider — провайдер не сконфигурирован. Транспорт: 400.
	ErrUnknownProvider = errors.New("unknown oauth2 provider")

	// ErrExchangeFailed — провайдер отклонил код либо не отдал профиль.
	// Транспорт: 401.
	ErrExchangeFailed = errors.New("oauth2 exchange failed")
)

// UserInfo — профиль пользователя у внешнего провайдера.
type UserInfo struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// Service — контракт OAuth2-клиента.
type Service interface {
	// RedirectURL возвращает URL страницы согласия провайдера.
	RedirectURL(provider models.Provider, state string) (string, error)
	// UserInfoByCode обменивает authorization code на профиль пользователя.
	UserInfoByCode(ctx context.Context, provider models.Provider, code string) (*UserInfo, error)
}

type providerClient struct {
	conf        *xoauth2.Config
	userInfoURL string
}

// Client — реализация Service поверх golang.org/x/oauth2.
type Client struct {
	providers map[models.Provider]providerClient
}

var _ Service = (*Client)(nil)

// New собирает клиент из конфигурации. Провайдер без client_id
// считается несконфигурированным и в реестр не попадает.
func New(cfg config.OAuth2Config) *Client {
	providers := make(map[models.Provider]providerClient)

	if cfg.Google.ClientID != "" {
		providers[models.ProviderGoogle] = providerClient{
			conf: &xoauth2.Config{
				ClientID:     cfg.Google.ClientID,
				ClientSecret: cfg.Google.ClientSecret,
				RedirectURL:  cfg.Google.RedirectURL,
				Scopes:       cfg.Google.Scopes,
				Endpoint: xoauth2.Endpoint{
					AuthURL:  cfg.Google.AuthURL,
					TokenURL: cfg.Google.TokenURL,
				},
			},
			userInfoURL: cfg.Google.UserInfoURL,
		}
	}

	return &Client{providers: providers}
}

// RedirectURL возвращает URL страницы согласия провайдера.
func (c *Client) RedirectURL(provider models.Provider, state string) (string, error) {
	const op = "oauth2.RedirectURL"

	p, ok := c.providers[provider]
	if !ok {
		return "", fmt.Errorf("%s: %q: %w", op, provider, ErrUnknownProvider)
	}

	return p.conf.AuthCodeURL(state), nil
}

// UserInfoByCode обменивает код на access token провайдера и запрашивает
// профиль. Любой отказ на стороне провайдера сворачивается в
// ErrExchangeFailed — детали остаются в обёртке ошибки.
func (c *Client) UserInfoByCode(ctx context.Context, provider models.Provider, code string) (*UserInfo, error) {
	const op = "oauth2.UserInfoByCode"

	p, ok := c.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%s: %q: %w", op, provider, ErrUnknownProvider)
	}

	token, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: exchange: %v: %w", op, err, ErrExchangeFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	token.SetAuthHeader(req)

	resp, err := p.conf.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: userinfo: %v: %w", op, err, ErrExchangeFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: userinfo status %d: %w", op, resp.StatusCode, ErrExchangeFailed)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var info UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%s: decode userinfo: %v: %w", op, err, ErrExchangeFailed)
	}

	if info.Subject == "" {
		return nil, fmt.Errorf("%s: empty subject in userinfo: %w", op, ErrExchangeFailed)
	}

	return &info, nil
}
