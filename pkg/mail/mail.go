// Package mail builds and delivers email messages.
//
// Usage:
//
//	msg := mail.To("admin@example.com").
//	    Subject("Low Stock Alert").
//	    HTML("<h1>Hello</h1>").
//	    Text("Hello")
//	err := mailer.Send(ctx, msg)
//
// A message with both an HTML and a text body is sent as
// multipart/alternative so clients can pick either.
package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"
)

// Message is a fluent builder for an email.
type Message struct {
	to          []string
	cc          []string
	bcc         []string
	subject     string
	html        string
	text        string
	attachments []Attachment
}

// Attachment is an in-memory file attached to a message.
type Attachment struct {
	Name    string
	Content []byte
}

// To starts a message for the given recipients.
func To(addresses ...string) *Message {
	return &Message{to: addresses}
}

func (m *Message) CC(addresses ...string) *Message {
	m.cc = append(m.cc, addresses...)
	return m
}

func (m *Message) BCC(addresses ...string) *Message {
	m.bcc = append(m.bcc, addresses...)
	return m
}

func (m *Message) Subject(s string) *Message {
	m.subject = s
	return m
}

// HTML sets the HTML body.
func (m *Message) HTML(body string) *Message {
	m.html = body
	return m
}

// Text sets the plain-text body.
func (m *Message) Text(body string) *Message {
	m.text = body
	return m
}

// Attach adds an in-memory attachment.
func (m *Message) Attach(name string, content []byte) *Message {
	m.attachments = append(m.attachments, Attachment{Name: name, Content: content})
	return m
}

func (m *Message) Recipients() []string { return m.to }
func (m *Message) SubjectLine() string { return m.subject }
func (m *Message) HTMLBody() string { return m.html }
func (m *Message) TextBody() string { return m.text }
func (m *Message) Attachments() []Attachment { return m.attachments }

// envelope returns every address the message is delivered to.
func (m *Message) envelope() []string {
	all := make([]string, 0, len(m.to)+len(m.cc)+len(m.bcc))
	all = append(all, m.to...)
	all = append(all, m.cc...)
	return append(all, m.bcc...)
}

func (m *Message) validate() error {
	if len(m.to) == 0 {
		return fmt.Errorf("mail: message has no recipients")
	}
	if m.html == "" && m.text == "" {
		return fmt.Errorf("mail: message %q has no body", m.subject)
	}
	return nil
}

// Bytes renders the RFC 5322 message. Bcc recipients are not written to
// the headers.
func (m *Message) Bytes(from string) ([]byte, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }

	header("From", from)
	header("To", strings.Join(m.to, ", "))
	if len(m.cc) > 0 {
		header("Cc", strings.Join(m.cc, ", "))
	}
	header("Subject", mime.QEncoding.Encode("utf-8", m.subject))
	header("Date", time.Now().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")

	if len(m.attachments) == 0 {
		if err := m.writeBody(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	mixed := multipart.NewWriter(&buf)
	header("Content-Type", `multipart/mixed; boundary="`+mixed.Boundary()+`"`)
	buf.WriteString("\r\n")

	var body bytes.Buffer
	if err := m.writeBody(&body); err != nil {
		return nil, err
	}
	// writeBody emits its own headers; split them off for the part.
	partHeader, partBody := splitHeader(body.Bytes())
	pw, err := mixed.CreatePart(partHeader)
	if err != nil {
		return nil, err
	}
	if _, err := pw.Write(partBody); err != nil {
		return nil, err
	}

	for _, a := range m.attachments {
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", mimeType(a.Name)+`; name="`+a.Name+`"`)
		h.Set("Content-Disposition", `attachment; filename="`+a.Name+`"`)
		h.Set("Content-Transfer-Encoding", "base64")
		aw, err := mixed.CreatePart(h)
		if err != nil {
			return nil, err
		}
		if err := writeBase64(aw, a.Content); err != nil {
			return nil, err
		}
	}
	if err := mixed.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeBody writes the Content-Type header, a blank line and the body.
func (m *Message) writeBody(buf *bytes.Buffer) error {
	switch {
	case m.html != "" && m.text != "":
		alt := multipart.NewWriter(buf)
		fmt.Fprintf(buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", alt.Boundary())
		// Least preferred first.
		if err := writeTextPart(alt, "text/plain", m.text); err != nil {
			return err
		}
		if err := writeTextPart(alt, "text/html", m.html); err != nil {
			return err
		}
		return alt.Close()
	case m.html != "":
		return writeSinglePart(buf, "text/html", m.html)
	default:
		return writeSinglePart(buf, "text/plain", m.text)
	}
}

func writeTextPart(w *multipart.Writer, contentType, body string) error {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", contentType+`; charset="UTF-8"`)
	h.Set("Content-Transfer-Encoding", "quoted-printable")
	pw, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	qp := quotedprintable.NewWriter(pw)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	return qp.Close()
}

func writeSinglePart(buf *bytes.Buffer, contentType, body string) error {
	fmt.Fprintf(buf, "Content-Type: %s; charset=\"UTF-8\"\r\n", contentType)
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
	qp := quotedprintable.NewWriter(buf)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	return qp.Close()
}

func splitHeader(raw []byte) (textproto.MIMEHeader, []byte) {
	h := textproto.MIMEHeader{}
	head, body, _ := bytes.Cut(raw, []byte("\r\n\r\n"))
	for _, line := range strings.Split(string(head), "\r\n") {
		if k, v, ok := strings.Cut(line, ": "); ok {
			h.Set(k, v)
		}
	}
	return h, body
}

func writeBase64(w interface{ Write([]byte) (int, error) }, content []byte) error {
	enc := base64.StdEncoding.EncodeToString(content)
	for len(enc) > 76 {
		if _, err := w.Write([]byte(enc[:76] + "\r\n")); err != nil {
			return err
		}
		enc = enc[76:]
	}
	_, err := w.Write([]byte(enc + "\r\n"))
	return err
}

func mimeType(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		if t := mime.TypeByExtension(name[i:]); t != "" {
			return t
		}
	}
	return "application/octet-stream"
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, m *Message) error
}
