package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

const (
	ProviderGithub = "github"
	ProviderGoogle = "google"
)

// Identity 第三方账号的基本信息
type Identity struct {
	Provider string
	ID       string
	Email    string
}

// Provider is an OAuth login provider.
type Provider interface {
	Name() string
	AuthURL(state string) string
	Identify(ctx context.Context, code string) (*Identity, error)
}

type GithubOAuth struct {
	config  *oauth2.Config
	apiBase string
}

func NewGithubOAuth(clientID, clientSecret, redirectURI string) *GithubOAuth {
	return &GithubOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"user:email"},
			Endpoint:     github.Endpoint,
		},
		apiBase: "https://api.github.com",
	}
}

func (g *GithubOAuth) Name() string { return ProviderGithub }

// AuthURL 获取 GitHub 授权 URL
func (g *GithubOAuth) AuthURL(state string) string {
	return g.config.AuthCodeURL(state)
}

// Identify 用授权码换取 token 并获取 GitHub 用户
func (g *GithubOAuth) Identify(ctx context.Context, code string) (*Identity, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("github exchange: %w", err)
	}
	return g.identity(ctx, g.config.Client(ctx, token))
}

func (g *GithubOAuth) identity(ctx context.Context, client *http.Client) (*Identity, error) {
	var user struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	}
	if err := getJSON(ctx, client, g.apiBase+"/user", &user); err != nil {
		return nil, err
	}

	// 如果邮箱为空，尝试获取主邮箱
	if user.Email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getJSON(ctx, client, g.apiBase+"/user/emails", &emails); err == nil {
			for _, e := range emails {
				if e.Primary && e.Verified {
					user.Email = e.Email
					break
				}
			}
		}
	}

	return &Identity{Provider: ProviderGithub, ID: strconv.FormatInt(user.ID, 10), Email: user.Email}, nil
}

type GoogleOAuth struct {
	config      *oauth2.Config
	userinfoURL string
}

func NewGoogleOAuth(clientID, clientSecret, redirectURI string) *GoogleOAuth {
	return &GoogleOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"openid", "email"},
			Endpoint:     google.Endpoint,
		},
		userinfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
	}
}

func (g *GoogleOAuth) Name() string { return ProviderGoogle }

func (g *GoogleOAuth) AuthURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *GoogleOAuth) Identify(ctx context.Context, code string) (*Identity, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google exchange: %w", err)
	}
	return g.identity(ctx, g.config.Client(ctx, token))
}

func (g *GoogleOAuth) identity(ctx context.Context, client *http.Client) (*Identity, error) {
	var info struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := getJSON(ctx, client, g.userinfoURL, &info); err != nil {
		return nil, err
	}
	if !info.EmailVerified {
		info.Email = ""
	}
	return &Identity{Provider: ProviderGoogle, ID: info.Sub, Email: info.Email}, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("oauth api error %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode user info: %w", err)
	}
	return nil
}
