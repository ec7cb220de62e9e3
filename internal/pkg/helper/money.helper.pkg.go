package helper

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var sumPrinter = message.NewPrinter(language.English)

// FormatSum renders an amount in so'm with thousands separators, e.g. "159,000 sum".
func FormatSum(amount int64) string {
	return sumPrinter.Sprintf("%v sum", number.Decimal(amount))
}
