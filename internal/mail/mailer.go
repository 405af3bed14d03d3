package mail

import (
	"context"
	"fmt"

	"github.com/mahosalu/estadisticas/pkg/config"
	gomail "github.com/wneessen/go-mail"
)

type Mailer struct {
	client   *gomail.Client
	from     string
	fromName string
}

func NewMailer(cfg *config.SMTPConfig) (*Mailer, error) {
	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.User),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("creating smtp client: %w", err)
	}

	return &Mailer{
		client:   client,
		from:     cfg.From,
		fromName: cfg.FromName,
	}, nil
}

// SendPasswordReset delivers the recovery email. The link is valid for
// one hour; the body says so.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, resetURL string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.from); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}
	msg.Subject("Restablecimiento de Contraseña - Sistema Estadísticas")
	msg.SetBodyString(gomail.TypeTextHTML, resetBody(name, resetURL))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending reset email: %w", err)
	}
	return nil
}

func resetBody(name, resetURL string) string {
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; color: #333;">
  <h2 style="color: #2563eb;">Recuperación de Contraseña</h2>
  <p>Hola <strong>%s</strong>,</p>
  <p>Hemos recibido una solicitud para restablecer tu contraseña en el Sistema de Estadísticas.</p>
  <p style="margin: 20px 0;">
    <a href="%s" style="background-color: #2563eb; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; font-weight: bold;">
      Restablecer mi contraseña
    </a>
  </p>
  <p>Si no solicitaste esto, puedes ignorar este correo. El enlace expirará en 1 hora.</p>
  <hr style="border: 0; border-top: 1px solid #eee;">
  <p style="font-size: 12px; color: #888;">Unidad de TICs - Departamento de Salud</p>
</div>`, name, resetURL)
}
