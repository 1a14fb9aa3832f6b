// Package mailer composes the storefront's transactional emails on top of the
// mail provider client. Every send here is best-effort; callers log failures
// and move on.
package mailer

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront-backend/internal/orders"
	"github.com/oakmart/storefront-backend/pkg/config"
	"github.com/oakmart/storefront-backend/pkg/mail"
)

type mailSender interface {
	Send(ctx context.Context, msg mail.Message) error
}

// Mailer renders and dispatches transactional emails.
type Mailer struct {
	sender  mailSender
	baseURL string
}

// New constructs a mailer over the provided mail client.
func New(sender mailSender, cfg config.MailConfig) (*Mailer, error) {
	if sender == nil {
		return nil, fmt.Errorf("mail sender is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.LinkBaseURL), "/")
	return &Mailer{sender: sender, baseURL: baseURL}, nil
}

// SendWelcome greets a freshly registered user.
func (m *Mailer) SendWelcome(ctx context.Context, to, name string) error {
	greeting := "Welcome to Oakmart"
	if strings.TrimSpace(name) != "" {
		greeting = fmt.Sprintf("Welcome to Oakmart, %s", name)
	}

	text := fmt.Sprintf(`%s!

Your account is ready. Browse the catalog and start filling your cart:
%s

The Oakmart team`, greeting, m.baseURL)

	htmlBody := fmt.Sprintf(`<h2>%s!</h2>
<p>Your account is ready. <a href="%s">Browse the catalog</a> and start filling your cart.</p>
<p>The Oakmart team</p>`, html.EscapeString(greeting), m.baseURL)

	return m.sender.Send(ctx, mail.Message{
		To:       to,
		ToName:   name,
		Subject:  "Welcome to Oakmart",
		TextBody: text,
		HTMLBody: htmlBody,
	})
}

// SendPasswordReset delivers the reset link. The token goes into the URL
// only; it is never logged or echoed elsewhere.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.baseURL, token)

	text := fmt.Sprintf(`Hi %s,

We received a request to reset your password. Use the link below within the
next hour:
%s

If you did not request this, you can ignore this email.`, displayName(name), link)

	htmlBody := fmt.Sprintf(`<p>Hi %s,</p>
<p>We received a request to reset your password. The link below is valid for one hour:</p>
<p><a href="%s">Reset your password</a></p>
<p>If you did not request this, you can ignore this email.</p>`, html.EscapeString(displayName(name)), link)

	return m.sender.Send(ctx, mail.Message{
		To:       to,
		ToName:   name,
		Subject:  "Reset your Oakmart password",
		TextBody: text,
		HTMLBody: htmlBody,
	})
}

// SendOrderConfirmation summarizes a placed order: lines, shipping address,
// masked payment info and the total.
func (m *Mailer) SendOrderConfirmation(ctx context.Context, to string, order *orders.OrderDTO) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}

	var textLines, htmlRows strings.Builder
	for _, item := range order.Items {
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Qty)))
		fmt.Fprintf(&textLines, "  %dx %s  %s\n", item.Qty, item.Name, lineTotal.StringFixed(2))
		fmt.Fprintf(&htmlRows, "<tr><td>%d×</td><td>%s</td><td>%s</td></tr>\n",
			item.Qty, html.EscapeString(item.Name), lineTotal.StringFixed(2))
	}

	payment := "on delivery"
	if order.PaymentMethod != nil {
		payment = *order.PaymentMethod
		if order.PaymentRef != nil {
			payment += " (" + maskRef(*order.PaymentRef) + ")"
		}
	}

	text := fmt.Sprintf(`Thanks for your order!

Order %s

%s
Total: %s
Payment: %s

Shipping to:
%s`, order.ID, textLines.String(), order.TotalAmount.StringFixed(2), payment, order.ShippingAddress.Oneline())

	htmlBody := fmt.Sprintf(`<h2>Thanks for your order!</h2>
<p>Order <code>%s</code></p>
<table>%s</table>
<p><strong>Total: %s</strong><br>Payment: %s</p>
<p>Shipping to:<br>%s</p>`,
		order.ID, htmlRows.String(), order.TotalAmount.StringFixed(2),
		html.EscapeString(payment), html.EscapeString(order.ShippingAddress.Oneline()))

	return m.sender.Send(ctx, mail.Message{
		To:       to,
		Subject:  fmt.Sprintf("Order confirmation %s", shortID(order.ID.String())),
		TextBody: text,
		HTMLBody: htmlBody,
	})
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}

// maskRef keeps only the last four characters of a gateway reference.
func maskRef(ref string) string {
	if len(ref) <= 4 {
		return ref
	}
	return "***" + ref[len(ref)-4:]
}

func shortID(id string) string {
	if len(id) > 8 {
		return "#" + id[:8]
	}
	return "#" + id
}
