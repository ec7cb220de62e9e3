package helper

import (
	"strconv"
	"strings"
	"unicode"
)

func StringToInt64(payload string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(payload), 10, 64)
}

// DigitsOnly drops every non-digit rune, e.g. "8600 1234-5678" -> "860012345678".
func DigitsOnly(payload string) string {
	var b strings.Builder
	b.Grow(len(payload))
	for _, r := range payload {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MaskCardNumber keeps only the last four digits of a card number.
func MaskCardNumber(number string) string {
	digits := DigitsOnly(number)
	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}

// MaskPhone keeps the country prefix and the last two digits of a phone number.
func MaskPhone(phone string) string {
	if len(phone) <= 6 {
		return phone
	}
	return phone[:4] + strings.Repeat("*", len(phone)-6) + phone[len(phone)-2:]
}

func ParseCommaSeperatedString(data string) []string {
	var stringsList []string
	if data == "" {
		return stringsList
	}

	for _, part := range strings.Split(data, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		stringsList = append(stringsList, part)
	}

	return stringsList
}
