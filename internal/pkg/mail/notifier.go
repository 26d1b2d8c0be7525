package mail

import (
	"fmt"

	"github.com/luispontes/ContaCerta/app/models"
)

// SMTPNotifier sends lifecycle emails asynchronously. Every send runs in its
// own goroutine: a broken mail relay must never fail a payment or a
// provisioning call.
type SMTPNotifier struct{}

// NewNotifier creates the SMTP-backed notifier.
func NewNotifier() *SMTPNotifier {
	return &SMTPNotifier{}
}

// PaymentInstructions mails the PIX code or boleto link after a charge is
// created.
func (n *SMTPNotifier) PaymentInstructions(reg *models.PendingRegistration) {
	subject := "Instruções de pagamento - ContaCerta"

	var payment string
	switch reg.PaymentMethod {
	case models.PaymentMethodPix:
		payment = fmt.Sprintf(`<p>Pague com PIX copiando o código abaixo:</p>
			<p><code>%s</code></p>`, reg.PixCode)
	case models.PaymentMethodBoleto:
		payment = fmt.Sprintf(`<p>Seu boleto está disponível em:</p>
			<p><a href="%s">%s</a></p>`, reg.BoletoURL, reg.BoletoURL)
	default:
		payment = fmt.Sprintf(`<p>Acompanhe sua fatura em <a href="%s">%s</a>.</p>`, reg.InvoiceURL, reg.InvoiceURL)
	}

	body := fmt.Sprintf(`<h2>Olá, %s!</h2>
		<p>Recebemos seu cadastro no plano <strong>%s</strong>.</p>
		%s
		<p>Assim que o pagamento for confirmado, sua conta será liberada automaticamente.</p>`,
		reg.Name, reg.Plan.Name, payment)

	go func() { _ = SendMail(reg.Email, subject, body) }()
}

// Welcome mails the post-provisioning welcome message.
func (n *SMTPNotifier) Welcome(email, name, planName string) {
	subject := "Bem-vindo ao ContaCerta!"
	body := fmt.Sprintf(`<h2>Olá, %s!</h2>
		<p>Seu pagamento foi confirmado e sua conta no plano <strong>%s</strong> está ativa.</p>
		<p>Acesse agora e comece a organizar suas finanças.</p>`, name, planName)

	go func() { _ = SendMail(email, subject, body) }()
}

// TrialExpiring warns a user their trial window is about to close.
func (n *SMTPNotifier) TrialExpiring(email, name string, daysRemaining int) {
	subject := "Seu período de teste está acabando"
	body := fmt.Sprintf(`<h2>Olá, %s!</h2>
		<p>Seu período de teste termina em <strong>%d dia(s)</strong>.</p>
		<p>Assine um plano para continuar usando o ContaCerta sem interrupções.</p>`, name, daysRemaining)

	go func() { _ = SendMail(email, subject, body) }()
}
