package choose_payment_method

// ChooseMethodRequest HTTP request model
type ChooseMethodRequest struct {
	PaymentMethod string `json:"paymentMethod"` // cash | upi | pay_later
}
