package domain

import "math"

// MinorPerMajor — количество минимальных единиц (центов) в одной денежной единице.
const MinorPerMajor = 100

// MajorToMinor переводит целую цену каталога в минимальные единицы.
func MajorToMinor(major int64) int64 {
	return major * MinorPerMajor
}

// MinorToMajor возвращает сумму в денежных единицах для отображения и передачи по сети.
func MinorToMajor(minor int64) float64 {
	return float64(minor) / MinorPerMajor
}

// ParseMajor переводит дробную сумму из JSON в минимальные единицы с округлением до цента.
func ParseMajor(major float64) int64 {
	return int64(math.Round(major * MinorPerMajor))
}
