// Package mailer sends the run status email through the system sendmail
// binary. The message is assembled here and piped to sendmail's stdin; the
// binary owns delivery, so it is treated like every other external tool.
package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/turtlewatch/internal/domain"
	"github.com/couchcryptid/turtlewatch/internal/publish"
)

const attachmentBoundary = "turtlewatch-attachment"

type runner interface {
	RunInput(ctx context.Context, stdin io.Reader, tool string, args ...string) ([]byte, error)
}

// Mailer implements pipeline.Notifier over sendmail.
type Mailer struct {
	bin    string
	from   string
	to     []string
	run    runner
	logger *slog.Logger
}

// New creates a Mailer for the fixed recipient list.
func New(bin, from string, to []string, run runner, logger *slog.Logger) *Mailer {
	return &Mailer{bin: bin, from: from, to: to, run: run, logger: logger}
}

// NotifySuccess mails the product summary with the full-size English image
// attached.
func (m *Mailer) NotifySuccess(ctx context.Context, product domain.Product) error {
	msg, err := m.buildSuccessMessage(product)
	if err != nil {
		return err
	}
	if _, err := m.run.RunInput(ctx, bytes.NewReader(msg), m.bin, "-t", "-oi"); err != nil {
		return fmt.Errorf("send status email: %w", err)
	}
	m.logger.Info("status email sent", "recipients", len(m.to), "date", domain.Label(product.Date))
	return nil
}

// NotifyFailure mails a short report naming the failed run and the error.
func (m *Mailer) NotifyFailure(ctx context.Context, runDate time.Time, runErr error) error {
	msg := m.buildFailureMessage(runDate, runErr)
	if _, err := m.run.RunInput(ctx, bytes.NewReader(msg), m.bin, "-t", "-oi"); err != nil {
		return fmt.Errorf("send failure email: %w", err)
	}
	m.logger.Info("failure email sent", "recipients", len(m.to), "date", domain.Label(runDate))
	return nil
}

func (m *Mailer) buildSuccessMessage(product domain.Product) ([]byte, error) {
	subject := fmt.Sprintf("TurtleWatch product for %s", domain.Label(product.Date))
	body := successBody(product)

	attachment, ok := product.Attachment()
	if !ok {
		return m.plainMessage(subject, body), nil
	}
	data, err := os.ReadFile(attachment.Path)
	if err != nil {
		return nil, fmt.Errorf("read attachment %s: %w", attachment.Path, err)
	}
	return m.multipartMessage(subject, body, publish.StagedName(attachment, product.Date.Format("20060102")), data), nil
}

func (m *Mailer) buildFailureMessage(runDate time.Time, runErr error) []byte {
	subject := fmt.Sprintf("TurtleWatch FAILED for %s", domain.Label(runDate))
	body := fmt.Sprintf("The TurtleWatch product run for %s aborted.\n\nError: %v\n\nNo images were published.\n",
		domain.Label(runDate), runErr)
	return m.plainMessage(subject, body)
}

func successBody(product domain.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "TurtleWatch images for %s are staged.\n\n", domain.Label(product.Date))
	fmt.Fprintf(&b, "Composite window: %s - %s\n\n", domain.Label(product.WindowStart), domain.Label(product.WindowEnd))
	b.WriteString("Published variants:\n")
	for _, a := range product.Artifacts {
		fmt.Fprintf(&b, "  %s\n", publish.StagedName(a, "latest"))
	}
	return b.String()
}

func (m *Mailer) writeHeaders(b *bytes.Buffer, subject string) {
	fmt.Fprintf(b, "From: %s\r\n", m.from)
	fmt.Fprintf(b, "To: %s\r\n", strings.Join(m.to, ", "))
	fmt.Fprintf(b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
}

func (m *Mailer) plainMessage(subject, body string) []byte {
	var b bytes.Buffer
	m.writeHeaders(&b, subject)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(body)
	return b.Bytes()
}

func (m *Mailer) multipartMessage(subject, body, filename string, attachment []byte) []byte {
	var b bytes.Buffer
	m.writeHeaders(&b, subject)
	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", attachmentBoundary)

	fmt.Fprintf(&b, "--%s\r\n", attachmentBoundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", attachmentBoundary)
	fmt.Fprintf(&b, "Content-Type: image/png; name=%q\r\n", filepath.Base(filename))
	fmt.Fprintf(&b, "Content-Disposition: attachment; filename=%q\r\n", filepath.Base(filename))
	b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")

	enc := base64.StdEncoding.EncodeToString(attachment)
	for len(enc) > 76 {
		b.WriteString(enc[:76])
		b.WriteString("\r\n")
		enc = enc[76:]
	}
	b.WriteString(enc)
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "--%s--\r\n", attachmentBoundary)
	return b.Bytes()
}
