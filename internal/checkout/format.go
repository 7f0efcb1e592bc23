package checkout

import "strings"

// Правила формирования ввода платёжных полей. Это не валидация:
// проверка выполняется только при переходе между шагами.

// FormatCardNumber оставляет не более 16 цифр и группирует их по четыре через пробел.
func FormatCardNumber(raw string) string {
	digits := onlyDigits(raw, 16)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatExpiry оставляет не более 4 цифр и вставляет "/" после второй, если есть третья.
func FormatExpiry(raw string) string {
	digits := onlyDigits(raw, 4)
	if len(digits) <= 2 {
		return digits
	}
	return digits[:2] + "/" + digits[2:]
}

// FormatCVV оставляет не более 4 цифр.
func FormatCVV(raw string) string {
	return onlyDigits(raw, 4)
}

func onlyDigits(raw string, limit int) string {
	var b strings.Builder
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		if n == limit {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
