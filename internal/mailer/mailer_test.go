package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmart/storefront-backend/internal/orders"
	"github.com/oakmart/storefront-backend/pkg/config"
	"github.com/oakmart/storefront-backend/pkg/mail"
	"github.com/oakmart/storefront-backend/pkg/types"
)

type captureSender struct {
	messages []mail.Message
}

func (c *captureSender) Send(_ context.Context, msg mail.Message) error {
	c.messages = append(c.messages, msg)
	return nil
}

func newTestMailer(t *testing.T) (*Mailer, *captureSender) {
	t.Helper()
	sender := &captureSender{}
	m, err := New(sender, config.MailConfig{LinkBaseURL: "https://shop.example.com/"})
	require.NoError(t, err)
	return m, sender
}

func TestSendWelcomeAddressesUserByName(t *testing.T) {
	m, sender := newTestMailer(t)

	require.NoError(t, m.SendWelcome(context.Background(), "sam@example.com", "Sam"))
	require.Len(t, sender.messages, 1)

	msg := sender.messages[0]
	assert.Equal(t, "sam@example.com", msg.To)
	assert.Contains(t, msg.TextBody, "Welcome to Oakmart, Sam")
	assert.Contains(t, msg.TextBody, "https://shop.example.com")
	assert.NotContains(t, msg.TextBody, "https://shop.example.com/\n", "trailing slash is trimmed")
}

func TestSendPasswordResetEmbedsTokenLink(t *testing.T) {
	m, sender := newTestMailer(t)

	require.NoError(t, m.SendPasswordReset(context.Background(), "sam@example.com", "", "tok_123"))
	require.Len(t, sender.messages, 1)

	msg := sender.messages[0]
	assert.Contains(t, msg.TextBody, "https://shop.example.com/reset-password?token=tok_123")
	assert.Contains(t, msg.HTMLBody, "reset-password?token=tok_123")
	assert.Contains(t, msg.TextBody, "Hi there", "blank names get a neutral greeting")
}

func TestSendOrderConfirmationMasksPaymentRef(t *testing.T) {
	m, sender := newTestMailer(t)

	method := "card"
	ref := "pay_secret_9876"
	order := &orders.OrderDTO{
		ID:            uuid.New(),
		TotalAmount:   decimal.NewFromFloat(105.50),
		PaymentMethod: &method,
		PaymentRef:    &ref,
		ShippingAddress: types.Address{
			Line1:      "12 Mill Lane",
			City:       "Portland",
			State:      "OR",
			PostalCode: "97201",
			Country:    "US",
		},
		Items: []orders.ItemDTO{
			{Name: "Oak Shelf", Qty: 2, UnitPrice: decimal.NewFromFloat(40.00)},
			{Name: "Oak Stool", Qty: 1, UnitPrice: decimal.NewFromFloat(25.50)},
		},
	}

	require.NoError(t, m.SendOrderConfirmation(context.Background(), "sam@example.com", order))
	require.Len(t, sender.messages, 1)

	msg := sender.messages[0]
	assert.Contains(t, msg.TextBody, "2x Oak Shelf")
	assert.Contains(t, msg.TextBody, "80.00")
	assert.Contains(t, msg.TextBody, "Total: 105.50")
	assert.Contains(t, msg.TextBody, "12 Mill Lane, Portland")
	assert.Contains(t, msg.TextBody, "***9876")
	assert.NotContains(t, msg.TextBody, "pay_secret_9876", "full gateway refs stay out of email")
	assert.True(t, strings.HasPrefix(msg.Subject, "Order confirmation #"))
}

func TestSendOrderConfirmationWithoutPayment(t *testing.T) {
	m, sender := newTestMailer(t)

	order := &orders.OrderDTO{
		ID:          uuid.New(),
		TotalAmount: decimal.NewFromFloat(40.00),
		ShippingAddress: types.Address{
			Line1: "12 Mill Lane", City: "Portland", State: "OR", PostalCode: "97201", Country: "US",
		},
		Items: []orders.ItemDTO{{Name: "Oak Shelf", Qty: 1, UnitPrice: decimal.NewFromFloat(40.00)}},
	}

	require.NoError(t, m.SendOrderConfirmation(context.Background(), "sam@example.com", order))
	assert.Contains(t, sender.messages[0].TextBody, "Payment: on delivery")
}
