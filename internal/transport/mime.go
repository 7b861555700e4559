package transport

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// Email is a composed message ready to be encoded.
type Email struct {
	From        string
	To          string
	Subject     string
	HTMLBody    string
	Attachments []string
}

// Encode builds an RFC 5322 message with a multipart/mixed body.
func (e Email) Encode() ([]byte, error) {
	for _, v := range []string{e.From, e.To} {
		if strings.ContainsAny(v, "\r\n") {
			return nil, fmt.Errorf("invalid address %q: contains a line break", v)
		}
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if e.From != "" {
		fmt.Fprintf(&buf, "From: %s\r\n", e.From)
	}
	fmt.Fprintf(&buf, "To: %s\r\n", e.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", e.Subject))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	htmlHeader := textproto.MIMEHeader{}
	htmlHeader.Set("Content-Type", "text/html; charset=UTF-8")
	htmlHeader.Set("Content-Transfer-Encoding", "base64")
	part, err := mw.CreatePart(htmlHeader)
	if err != nil {
		return nil, fmt.Errorf("create html part: %w", err)
	}
	if err := writeBase64(part, []byte(e.HTMLBody)); err != nil {
		return nil, err
	}

	for _, path := range e.Attachments {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read attachment %s: %w", path, err)
		}
		name := filepath.Base(path)
		ctype := mime.TypeByExtension(filepath.Ext(name))
		if ctype == "" {
			ctype = "application/octet-stream"
		}
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", ctype)
		h.Set("Content-Transfer-Encoding", "base64")
		h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("create attachment part: %w", err)
		}
		if err := writeBase64(part, data); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}
	return buf.Bytes(), nil
}

func writeBase64(w io.Writer, data []byte) error {
	enc := base64.StdEncoding.EncodeToString(data)
	for len(enc) > 76 {
		if _, err := fmt.Fprintf(w, "%s\r\n", enc[:76]); err != nil {
			return fmt.Errorf("write part: %w", err)
		}
		enc = enc[76:]
	}
	if _, err := fmt.Fprintf(w, "%s\r\n", enc); err != nil {
		return fmt.Errorf("write part: %w", err)
	}
	return nil
}
