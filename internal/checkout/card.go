package checkout

import (
	"regexp"
	"strings"
)

type CardBrand string

const (
	BrandVisa       CardBrand = "VISA"
	BrandMastercard CardBrand = "MASTERCARD"
	BrandUnknown    CardBrand = "UNKNOWN"
)

var (
	nonDigit      = regexp.MustCompile(`\D`)
	visaPattern   = regexp.MustCompile(`^4\d{12}(\d{3})?(\d{3})?$`)
	masterPattern = regexp.MustCompile(`^(5[1-5]\d{14}|2(2[2-9]|[3-6]\d|7[01])\d{13})$`)
)

func DetectCardBrand(number string) CardBrand {
	digits := nonDigit.ReplaceAllString(number, "")
	switch {
	case visaPattern.MatchString(digits):
		return BrandVisa
	case masterPattern.MatchString(digits):
		return BrandMastercard
	}
	return BrandUnknown
}

// MaskCard keeps only the last four digits.
func MaskCard(number string) string {
	digits := nonDigit.ReplaceAllString(number, "")
	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}
