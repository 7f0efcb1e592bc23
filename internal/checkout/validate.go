package checkout

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Имена полей формы совпадают с JSON-ключами черновика.
const (
	FieldFirstName  = "firstName"
	FieldLastName   = "lastName"
	FieldEmail      = "email"
	FieldPhone      = "phone"
	FieldAddress    = "address"
	FieldCity       = "city"
	FieldState      = "state"
	FieldZip        = "zip"
	FieldCountry    = "country"
	FieldCardNumber = "cardNumber"
	FieldCardName   = "cardName"
	FieldExpiry     = "expiry"
	FieldCVV        = "cvv"
)

var (
	shippingFields = map[string]bool{
		FieldFirstName: true, FieldLastName: true, FieldEmail: true, FieldPhone: true,
		FieldAddress: true, FieldCity: true, FieldState: true, FieldZip: true, FieldCountry: true,
	}
	paymentFields = map[string]bool{
		FieldCardNumber: true, FieldCardName: true, FieldExpiry: true, FieldCVV: true,
	}
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern  = regexp.MustCompile(`^\+?[\d\s-]{10,}$`)
	cardPattern   = regexp.MustCompile(`^\d{16}$`)
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvPattern    = regexp.MustCompile(`^\d{3,4}$`)
)

const minPhoneDigits = 10

// ValidationError перечисляет поля шага, не прошедшие проверку.
type ValidationError struct {
	Step   Step
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("%s: %s step: %s", domain.ErrValidation, e.Step, strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error {
	return domain.ErrValidation
}

// ValidateShipping возвращает карту поле → сообщение; пустая карта означает успех.
func ValidateShipping(info domain.ShippingInfo) map[string]string {
	errs := make(map[string]string)
	required := []struct {
		field, value, message string
	}{
		{FieldFirstName, info.FirstName, "First name is required"},
		{FieldLastName, info.LastName, "Last name is required"},
		{FieldAddress, info.Address, "Address is required"},
		{FieldCity, info.City, "City is required"},
		{FieldState, info.State, "State is required"},
		{FieldZip, info.Zip, "ZIP code is required"},
	}
	for _, r := range required {
		if blank(r.value) {
			errs[r.field] = r.message
		}
	}

	switch {
	case blank(info.Email):
		errs[FieldEmail] = "Email is required"
	case !emailPattern.MatchString(info.Email):
		errs[FieldEmail] = "Invalid email format"
	}

	switch {
	case blank(info.Phone):
		errs[FieldPhone] = "Phone is required"
	case !validPhone(info.Phone):
		errs[FieldPhone] = "Invalid phone format (min 10 digits)"
	}

	return errs
}

// ValidatePayment проверяет имя на карте, номер, срок и CVV.
func ValidatePayment(info domain.PaymentInfo) map[string]string {
	errs := make(map[string]string)

	if blank(info.CardName) {
		errs[FieldCardName] = "Name on card is required"
	}

	switch {
	case blank(info.CardNumber):
		errs[FieldCardNumber] = "Card number is required"
	case !cardPattern.MatchString(strings.Join(strings.Fields(info.CardNumber), "")):
		errs[FieldCardNumber] = "Invalid card number (must be 16 digits)"
	}

	switch {
	case blank(info.Expiry):
		errs[FieldExpiry] = "Expiry is required"
	case !expiryPattern.MatchString(info.Expiry):
		errs[FieldExpiry] = "Invalid format (MM/YY)"
	}

	switch {
	case blank(info.CVV):
		errs[FieldCVV] = "CVV is required"
	case !cvvPattern.MatchString(info.CVV):
		errs[FieldCVV] = "Invalid CVV (3 or 4 digits)"
	}

	return errs
}

// validPhone требует допустимые символы и не менее 10 цифр.
func validPhone(phone string) bool {
	if !phonePattern.MatchString(phone) {
		return false
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= minPhoneDigits
}

func blank(v string) bool {
	return strings.TrimSpace(v) == ""
}
