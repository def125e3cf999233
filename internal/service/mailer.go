package service

import (
	"fmt"
	"net/url"

	gomail "gopkg.in/gomail.v2"

	"github.com/Callypige/dreamology-diary/internal/config"
)

// Mailer renders and delivers transactional emails over SMTP.
// It is used by the email workers, never called on the request path.
type Mailer struct {
	dialer  *gomail.Dialer
	from    string
	baseURL string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		dialer:  gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:    cfg.EmailFrom,
		baseURL: cfg.AppBaseURL,
	}
}

// SendVerification sends the email confirmation link. The token is valid for 24 hours.
func (m *Mailer) SendVerification(to, name, token string) error {
	link := fmt.Sprintf("%s/auth/verify-email?token=%s", m.baseURL, url.QueryEscape(token))

	body := fmt.Sprintf(`<h2>Bienvenue sur Dreamology, %s !</h2>
<p>Merci de vous être inscrit(e). Pour activer votre compte, cliquez sur le lien ci-dessous&nbsp;:</p>
<p><a href="%s">Confirmer mon adresse email</a></p>
<p>Ce lien expire dans 24 heures.</p>
<p>Si vous n'êtes pas à l'origine de cette inscription, ignorez simplement ce message.</p>`, name, link)

	return m.send(to, "Confirmez votre adresse email", body)
}

// SendWelcome sends the post-verification welcome email.
func (m *Mailer) SendWelcome(to, name string) error {
	body := fmt.Sprintf(`<h2>Votre compte est activé, %s !</h2>
<p>Votre journal de rêves vous attend. Bonne exploration&nbsp;!</p>
<p><a href="%s">Accéder à mon journal</a></p>`, name, m.baseURL)

	return m.send(to, "Bienvenue sur Dreamology", body)
}

// SendPasswordReset sends the password reset link. The token is valid for 1 hour.
func (m *Mailer) SendPasswordReset(to, name, token string) error {
	link := fmt.Sprintf("%s/auth/reset-password?token=%s", m.baseURL, url.QueryEscape(token))

	body := fmt.Sprintf(`<h2>Réinitialisation de votre mot de passe</h2>
<p>Bonjour %s,</p>
<p>Vous avez demandé la réinitialisation de votre mot de passe. Cliquez sur le lien ci-dessous pour en choisir un nouveau&nbsp;:</p>
<p><a href="%s">Réinitialiser mon mot de passe</a></p>
<p>Ce lien expire dans 1 heure. Si vous n'avez pas fait cette demande, ignorez ce message&nbsp;: votre mot de passe reste inchangé.</p>`, name, link)

	return m.send(to, "Réinitialisation de votre mot de passe", body)
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}
