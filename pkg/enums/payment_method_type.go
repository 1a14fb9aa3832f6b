package enums

// PaymentMethodType distinguishes stored payment instruments.
type PaymentMethodType string

const (
	PaymentMethodTypeCard PaymentMethodType = "card"
	PaymentMethodTypeBank PaymentMethodType = "bank"
)

func (t PaymentMethodType) IsValid() bool {
	switch t {
	case PaymentMethodTypeCard, PaymentMethodTypeBank:
		return true
	}
	return false
}
