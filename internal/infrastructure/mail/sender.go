package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"newsagent/internal/config"
	"newsagent/internal/ports"
)

// Sender delivers newsletters over SMTP with STARTTLS and plain auth.
type Sender struct {
	server    string
	port      int
	address   string
	password  string
	to        string
	logger    *slog.Logger
	now       func() time.Time
	tlsConfig *tls.Config
}

var _ ports.Transport = (*Sender)(nil)

// NewSender registers connection and recipient details.
func NewSender(cfg config.SMTPConfig, logger *slog.Logger) *Sender {
	return &Sender{
		server:    cfg.Server,
		port:      cfg.Port,
		address:   cfg.Address,
		password:  cfg.Password,
		to:        cfg.To,
		logger:    logger,
		now:       time.Now,
		tlsConfig: &tls.Config{ServerName: cfg.Server},
	}
}

// Send delivers the document as a multipart plain+HTML message. An empty
// subject gets the dated default.
func (s *Sender) Send(ctx context.Context, document, subject string) error {
	if s.server == "" || s.address == "" || s.to == "" {
		return fmt.Errorf("mail sender misconfigured")
	}
	if subject == "" {
		subject = defaultSubject(s.now())
	}

	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Mail(s.address); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(s.to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("open data: %w", err)
	}
	if _, err := writer.Write(s.buildMessage(document, subject)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	if err := client.Quit(); err != nil {
		return fmt.Errorf("quit: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("newsletter sent", "to", s.to)
	}
	return nil
}

// Test verifies connectivity and credentials without sending anything.
func (s *Sender) Test(ctx context.Context) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	return client.Quit()
}

func (s *Sender) connect(ctx context.Context) (*smtp.Client, error) {
	addr := fmt.Sprintf("%s:%d", s.server, s.port)

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, s.server)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp handshake: %w", err)
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(s.tlsConfig); err != nil {
			client.Close()
			return nil, fmt.Errorf("starttls: %w", err)
		}
	}

	if s.password != "" {
		auth := smtp.PlainAuth("", s.address, s.password, s.server)
		if err := client.Auth(auth); err != nil {
			client.Close()
			return nil, fmt.Errorf("auth: %w", err)
		}
	}

	return client, nil
}

func defaultSubject(date time.Time) string {
	return fmt.Sprintf("Your Daily Newsletter - %s", date.Format("January 2, 2006"))
}

func (s *Sender) buildMessage(document, subject string) []byte {
	body := &bytes.Buffer{}
	alt := multipart.NewWriter(body)

	plain, _ := alt.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	plain.Write([]byte(document))

	html, _ := alt.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=utf-8"},
	})
	html.Write([]byte(toHTML(document)))

	alt.Close()

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", s.address)
	fmt.Fprintf(&msg, "To: %s\r\n", s.to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n", alt.Boundary())
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes()
}

func toHTML(document string) string {
	body := strings.ReplaceAll(document, "\n", "<br>\n")
	return "<html><body style=\"font-family: Arial, sans-serif; line-height: 1.6;\">" +
		body +
		"</body></html>"
}
