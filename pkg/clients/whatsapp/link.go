package whatsapp

import (
	"net/url"
	"strings"
	"unicode"
)

// DefaultCountryCode is prepended to national numbers that carry no country code.
const DefaultCountryCode = "55"

// ChatLink builds a wa.me click-to-chat link with a prefilled message.
// It returns an empty string when phone holds no digits.
func ChatLink(phone, text string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return ""
	}

	// 10 or 11 digits is a national number: area code plus 8 or 9 digit subscriber
	if len(digits) == 10 || len(digits) == 11 {
		digits = DefaultCountryCode + digits
	}

	link := "https://wa.me/" + digits
	if text != "" {
		link += "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	}
	return link
}
