// Package notification sends the lifecycle emails over SMTP. Dispatch is
// asynchronous and never fails the triggering operation; delivery problems are
// logged and dropped.
package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"coursereq/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Config carries the SMTP endpoint and the base URL used in mail links. With
// any SMTP field empty, the mailer stays in suppressed mode and only logs.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
	BaseURL  string
}

func (c Config) complete() bool {
	return c.Host != "" && c.Port != "" && c.Username != "" && c.Password != "" && c.Sender != ""
}

// ClassDirectory lists the users holding a role in a class. Satisfied by the
// user store.
type ClassDirectory interface {
	ListByClassRole(ctx context.Context, class domain.Class, role domain.Role) ([]domain.User, error)
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer implements the request lifecycle notifier.
type Mailer struct {
	cfg    Config
	users  ClassDirectory
	logger *slog.Logger
	tmpl   *template.Template
	send   sendFunc
	wg     sync.WaitGroup
}

type Option func(*Mailer)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Mailer) {
		m.logger = logger
	}
}

// WithSendFunc swaps the SMTP send call, for tests.
func WithSendFunc(send sendFunc) Option {
	return func(m *Mailer) {
		m.send = send
	}
}

func New(cfg Config, users ClassDirectory, opts ...Option) (*Mailer, error) {
	if users == nil {
		return nil, fmt.Errorf("class directory is required")
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	m := &Mailer{
		cfg:    cfg,
		users:  users,
		logger: slog.Default(),
		tmpl:   tmpl,
		send:   smtp.SendMail,
	}
	for _, opt := range opts {
		opt(m)
	}
	if !cfg.complete() {
		m.logger.Warn("smtp configuration incomplete, email notifications suppressed")
	}
	return m, nil
}

// Flush blocks until every in-flight delivery finished. Called on shutdown.
func (m *Mailer) Flush() {
	m.wg.Wait()
}

// RequestCreated mails the class instructors, cc'ing the requester.
func (m *Mailer) RequestCreated(ctx context.Context, req domain.Request) {
	m.dispatch(ctx, req, func(ctx context.Context) error {
		instructors, err := m.users.ListByClassRole(ctx, req.Class, domain.RoleInstructor)
		if err != nil {
			return err
		}
		body, err := m.render("new_request.html", mailData{
			Request: req,
			Link:    fmt.Sprintf("%s/request/%s", m.cfg.BaseURL, req.ID),
		})
		if err != nil {
			return err
		}
		return m.deliver(emails(instructors), []string{req.From},
			fmt.Sprintf("New Request: %s for %s", req.Type, req.Class), body)
	})
}

// ResponseCreated mails the requester, cc'ing the class instructors and TAs.
func (m *Mailer) ResponseCreated(ctx context.Context, req domain.Request) {
	m.dispatch(ctx, req, func(ctx context.Context) error {
		var instructors, tas []domain.User
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			instructors, err = m.users.ListByClassRole(gctx, req.Class, domain.RoleInstructor)
			return err
		})
		g.Go(func() error {
			var err error
			tas, err = m.users.ListByClassRole(gctx, req.Class, domain.RoleTA)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}
		body, err := m.render("new_response.html", mailData{
			Request: req,
			Link:    fmt.Sprintf("%s/response/%s", m.cfg.BaseURL, req.ID),
		})
		if err != nil {
			return err
		}
		return m.deliver([]string{req.From}, emails(append(instructors, tas...)),
			fmt.Sprintf("New Response: %s for %s", req.Type, req.Class), body)
	})
}

// dispatch runs the delivery in the background, detached from the request
// lifetime so an early client disconnect does not cancel the mail.
func (m *Mailer) dispatch(ctx context.Context, req domain.Request, fn func(context.Context) error) {
	if !m.cfg.complete() {
		m.logger.InfoContext(ctx, "email suppressed", "request_id", req.ID)
		return
	}
	bg := context.WithoutCancel(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := fn(bg); err != nil {
			m.logger.Error("email delivery failed", "request_id", req.ID, "error", err)
		}
	}()
}

type mailData struct {
	Request domain.Request
	Link    string
}

func (m *Mailer) render(name string, data mailData) (string, error) {
	var buf bytes.Buffer
	if err := m.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (m *Mailer) deliver(to, cc []string, subject, body string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}
	msg := buildMessage(m.cfg.Sender, to, cc, subject, body)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	addr := m.cfg.Host + ":" + m.cfg.Port
	return m.send(addr, auth, m.cfg.Sender, append(to, cc...), msg)
}

func buildMessage(from string, to, cc []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	if len(cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(cc, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func emails(users []domain.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Email)
	}
	return out
}
