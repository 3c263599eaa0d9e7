package models

import (
	"fmt"
	"strconv"
	"strings"
)

// DateLayout задает формат календарной даты в API и в аргументах хранилища.
const DateLayout = "2006-01-02"

// Money задает сумму в минимальных единицах валюты (центах).
type Money int64

// String выводит сумму с двумя знаками после точки, с такой точностью хранятся взносы.
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// ParseMoney разбирает десятичную сумму вида "45", "45.5" или "45.50" в Money.
// Больше двух знаков после точки считается ошибкой.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	v := w*100 + f
	if neg {
		v = -v
	}
	return Money(v), nil
}
