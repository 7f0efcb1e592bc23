package checkout

// Step — шаг оформления заказа.
type Step int

const (
	StepShipping Step = iota + 1
	StepPayment
	StepReview
	// StepComplete — терминальный шаг, других конечных состояний нет.
	StepComplete
)

func (s Step) String() string {
	switch s {
	case StepShipping:
		return "shipping"
	case StepPayment:
		return "payment"
	case StepReview:
		return "review"
	case StepComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// MarshalText отдаёт шаг строкой в JSON.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
