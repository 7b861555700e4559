package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"xoxo/internal/candy"
)

func TestPresenter_RendersMarkdownNote(t *testing.T) {
	p, err := NewPresenter("", "")
	if err != nil {
		t.Fatalf("presenter: %v", err)
	}
	if p.Subject() != DefaultSubject {
		t.Fatalf("unexpected subject %q", p.Subject())
	}
	body, err := p.Body("amy@example.com", candy.Candy{
		Name:        "hello",
		Note:        "**love** you",
		HasNote:     true,
		Attachments: []string{"/x/candies/hello.jpg"},
	})
	if err != nil {
		t.Fatalf("body: %v", err)
	}
	if !strings.Contains(body, "<strong>love</strong>") {
		t.Fatalf("markdown not rendered: %s", body)
	}
	if !strings.Contains(body, "amy@example.com") || !strings.Contains(body, "hello.jpg") {
		t.Fatalf("recipient or attachment missing: %s", body)
	}
	if strings.Contains(body, "/x/candies") {
		t.Fatalf("attachment path leaked: %s", body)
	}
}

func TestPresenter_CustomTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candy.html")
	if err := os.WriteFile(path, []byte(`<b>{{.Recipient}}</b>`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := NewPresenter("hi", path)
	if err != nil {
		t.Fatalf("presenter: %v", err)
	}
	body, _ := p.Body("bob", candy.Candy{Name: "x"})
	if body != "<b>bob</b>" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestEmail_EncodeWithAttachment(t *testing.T) {
	att := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(att, []byte("PNGDATA"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, err := Email{From: "me@example.com", To: "amy@example.com", Subject: "Your daily candy", HTMLBody: "<p>hi</p>", Attachments: []string{att}}.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	if err != nil {
		t.Fatalf("parse message: %v", err)
	}
	if msg.Header.Get("To") != "amy@example.com" {
		t.Fatalf("unexpected To: %q", msg.Header.Get("To"))
	}
	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/mixed" {
		t.Fatalf("unexpected content type %q: %v", mediaType, err)
	}
	mr := multipart.NewReader(msg.Body, params["boundary"])
	var parts []string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next part: %v", err)
		}
		data, _ := io.ReadAll(p)
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(data), "\r\n", ""))
		if err != nil {
			t.Fatalf("decode part: %v", err)
		}
		parts = append(parts, string(decoded))
	}
	if len(parts) != 2 || parts[0] != "<p>hi</p>" || parts[1] != "PNGDATA" {
		t.Fatalf("unexpected parts: %q", parts)
	}
}

func TestParseGoogleCredentials(t *testing.T) {
	c, err := ParseGoogleCredentials([]byte(`{"installed":{"client_id":"id","client_secret":"s"}}`))
	if err != nil || c.ClientID != "id" {
		t.Fatalf("installed: %+v %v", c, err)
	}
	c, err = ParseGoogleCredentials([]byte(`{"client_id":"id2","client_secret":"s"}`))
	if err != nil || c.ClientID != "id2" {
		t.Fatalf("direct: %+v %v", c, err)
	}
	if _, err := ParseGoogleCredentials([]byte(`{}`)); err == nil {
		t.Fatalf("expected error for empty credentials")
	}
}

func TestGmailSender_PostsRawMessage(t *testing.T) {
	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/messages/send") {
			http.NotFound(w, r)
			return
		}
		var m gmail.Message
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		raw = m.Raw
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"m-1"}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, err := gmail.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	p, _ := NewPresenter("", "")
	s := NewGmailSenderWithService(svc, "me@example.com", p)
	if err := s.Send(ctx, "amy@example.com", candy.Candy{Name: "hello", Note: "hi", HasNote: true}); err != nil {
		t.Fatalf("send: %v", err)
	}
	decoded, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	if !strings.Contains(string(decoded), "To: amy@example.com") {
		t.Fatalf("recipient missing from raw message: %s", decoded)
	}
}

func TestGmailSender_ErrorIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":400,"message":"bad recipient"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, _ := gmail.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	p, _ := NewPresenter("", "")
	err := NewGmailSenderWithService(svc, "", p).Send(ctx, "amy@example.com", candy.Candy{Name: "x"})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("want ErrTransport, got %v", err)
	}
}

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func TestTelegramSender_SendsNoteAndDocuments(t *testing.T) {
	fs := &fakeSender{}
	ts := &TelegramSender{s: fs, subject: DefaultSubject}
	c := candy.Candy{Name: "hello", Note: "hug", HasNote: true, Attachments: []string{"/a/1.jpg", "/a/2.jpg"}}
	if err := ts.Send(context.Background(), "12345", c); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(fs.sent) != 3 {
		t.Fatalf("want 3 sends, got %d", len(fs.sent))
	}
	msg, ok := fs.sent[0].(tgbotapi.MessageConfig)
	if !ok || msg.ChatID != 12345 || !strings.Contains(msg.Text, "hug") {
		t.Fatalf("unexpected first message: %+v", fs.sent[0])
	}
	doc, ok := fs.sent[1].(tgbotapi.DocumentConfig)
	if !ok || doc.File != tgbotapi.FilePath("/a/1.jpg") {
		t.Fatalf("unexpected document: %+v", fs.sent[1])
	}
}

func TestTelegramSender_Errors(t *testing.T) {
	ts := &TelegramSender{s: &fakeSender{}, subject: DefaultSubject}
	if err := ts.Send(context.Background(), "amy@example.com", candy.Candy{Name: "x"}); !errors.Is(err, ErrTransport) {
		t.Fatalf("bad chat id: want ErrTransport, got %v", err)
	}
	ts = &TelegramSender{s: &fakeSender{err: errors.New("blocked")}, subject: DefaultSubject}
	if err := ts.Send(context.Background(), "1", candy.Candy{Name: "x"}); !errors.Is(err, ErrTransport) {
		t.Fatalf("api error: want ErrTransport, got %v", err)
	}
}

// stoppingSender cancels the caller's context as soon as the first part is out.
type stoppingSender struct {
	fakeSender
	cancel context.CancelFunc
}

func (s *stoppingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.cancel()
	return s.fakeSender.Send(c)
}

func TestTelegramSender_FinishesAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fs := &stoppingSender{cancel: cancel}
	ts := &TelegramSender{s: fs, subject: DefaultSubject}
	c := candy.Candy{Name: "hello", Note: "hug", HasNote: true, Attachments: []string{"/a/1.jpg", "/a/2.jpg"}}
	if err := ts.Send(ctx, "12345", c); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(fs.sent) != 3 {
		t.Fatalf("want all 3 parts sent, got %d", len(fs.sent))
	}
}

func TestEmail_RejectsHeaderInjection(t *testing.T) {
	_, err := Email{To: "amy@example.com\r\nBcc: all@example.com", Subject: "x", HTMLBody: "x"}.Encode()
	if err == nil {
		t.Fatalf("want error for recipient with line break")
	}
}
