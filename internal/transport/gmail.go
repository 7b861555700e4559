package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"xoxo/internal/candy"
)

// OAuth2Credentials is the client part of a Google credentials file.
type OAuth2Credentials struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RedirectURIs []string `json:"redirect_uris"`
	AuthURI      string   `json:"auth_uri"`
	TokenURI     string   `json:"token_uri"`
}

// GoogleCredentialsFile is credentials.json as downloaded from Google Cloud Console.
type GoogleCredentialsFile struct {
	Installed *OAuth2Credentials `json:"installed,omitempty"`
	Web       *OAuth2Credentials `json:"web,omitempty"`
}

// ParseGoogleCredentials accepts either the bare client object or the
// Cloud Console file with an "installed" or "web" section.
func ParseGoogleCredentials(data []byte) (*OAuth2Credentials, error) {
	var direct OAuth2Credentials
	if err := json.Unmarshal(data, &direct); err == nil {
		if direct.ClientID != "" && direct.ClientSecret != "" {
			return &direct, nil
		}
	}

	var file GoogleCredentialsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse credentials as Google format: %w", err)
	}
	if file.Installed != nil {
		return file.Installed, nil
	}
	if file.Web != nil {
		return file.Web, nil
	}
	return nil, fmt.Errorf("no valid credentials found in JSON - expected 'installed' or 'web' section")
}

// OAuth2Config builds the config used both to send and to obtain tokens.
func OAuth2Config(creds *OAuth2Credentials) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{gmail.GmailSendScope},
		Endpoint:     google.Endpoint,
	}
}

// GmailSender sends candies as e-mails through the Gmail API.
type GmailSender struct {
	svc       *gmail.Service
	from      string
	presenter *Presenter
}

// NewGmailSender authenticates with a stored refresh token.
func NewGmailSender(ctx context.Context, credentialsJSON, refreshToken, from string, p *Presenter) (*GmailSender, error) {
	creds, err := ParseGoogleCredentials([]byte(credentialsJSON))
	if err != nil {
		return nil, err
	}
	if refreshToken == "" {
		return nil, fmt.Errorf("gmail refresh token is empty, run gmail-auth-helper first")
	}
	cfg := OAuth2Config(creds)
	ts := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	log.Printf("✅ Gmail transport ready (from=%q)", from)
	return NewGmailSenderWithService(svc, from, p), nil
}

func NewGmailSenderWithService(svc *gmail.Service, from string, p *Presenter) *GmailSender {
	return &GmailSender{svc: svc, from: from, presenter: p}
}

func (s *GmailSender) Send(ctx context.Context, recipient string, c candy.Candy) error {
	body, err := s.presenter.Body(recipient, c)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	raw, err := Email{
		From:        s.from,
		To:          recipient,
		Subject:     s.presenter.Subject(),
		HTMLBody:    body,
		Attachments: c.Attachments,
	}.Encode()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	sent, err := s.svc.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: gmail send: %w", ErrTransport, err)
	}
	log.Printf("📧 Gmail message %s sent to %s", sent.Id, recipient)
	return nil
}
