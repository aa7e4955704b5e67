package cli

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// amountFormatter renders money with locale digit grouping. Digits come
// from the decimal itself; the printer only supplies the locale's
// separators and grouping, so no amount passes through a float.
type amountFormatter struct {
	printer  *message.Printer
	group    string
	fraction string
}

func newAmountFormatter(locale string) (amountFormatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return amountFormatter{}, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	p := message.NewPrinter(tag)
	return amountFormatter{
		printer:  p,
		group:    separatorAfterOne(p.Sprint(number.Decimal(int64(1000000)))),
		fraction: separatorAfterOne(p.Sprint(number.Decimal(1.5, number.Scale(1)))),
	}, nil
}

// separatorAfterOne returns the non-digit run following the leading "1".
func separatorAfterOne(sample string) string {
	rest := strings.TrimPrefix(sample, "1")
	end := strings.IndexFunc(rest, unicode.IsDigit)
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// Format prints d with two decimals, or none when d is whole.
func (f amountFormatter) Format(d decimal.Decimal) string {
	scale := int32(0)
	if !d.Equal(d.Truncate(0)) {
		scale = 2
	}
	abs := d.Abs().Round(scale)
	whole := abs.Truncate(0)

	var b strings.Builder
	if d.IsNegative() && !abs.IsZero() {
		b.WriteByte('-')
	}
	if bi := whole.BigInt(); bi.IsInt64() {
		b.WriteString(f.printer.Sprint(number.Decimal(bi.Int64())))
	} else {
		b.WriteString(groupDigits(bi.String(), f.group))
	}
	if scale > 0 {
		fixed := abs.StringFixed(scale)
		b.WriteString(f.fraction)
		b.WriteString(fixed[strings.IndexByte(fixed, '.')+1:])
	}
	return b.String()
}

// groupDigits inserts sep between thousands of an unsigned digit string.
func groupDigits(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		b.WriteString(sep)
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
