// Package dutchdate normalizes the Dutch-language dates found on advice
// pages ("12 maart 2024") into the dd-mm-yyyy form used downstream.
package dutchdate

import (
	"strings"
	"time"
)

// Layout is the normalized date layout.
const Layout = "02-01-2006"

// Month names as they appear on scraped pages, including the abbreviated
// forms that show up in older records.
var months = map[string]string{
	"januari": "01", "februari": "02", "maart": "03", "april": "04",
	"mei": "05", "juni": "06", "juli": "07", "augustus": "08",
	"september": "09", "oktober": "10", "november": "11", "december": "12",
	"jan": "01", "jan.": "01", "feb": "02", "feb.": "02",
	"mrt": "03", "mrt.": "03", "aug": "08", "aug.": "08",
	"sept": "09", "sept.": "09", "okt": "10", "okt.": "10",
	"nov": "11", "nov.": "11", "dec": "12", "dec.": "12",
}

// Normalize parses a "day monthname year" date into dd-mm-yyyy. The second
// return value is false when raw does not hold a valid Dutch date.
func Normalize(raw string) (string, bool) {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
	if len(parts) != 3 {
		return "", false
	}

	day := parts[0]
	if len(day) == 1 {
		day = "0" + day
	}
	month, ok := months[parts[1]]
	if !ok {
		return "", false
	}

	formatted := day + "-" + month + "-" + parts[2]
	if _, err := time.Parse(Layout, formatted); err != nil {
		return "", false
	}
	return formatted, true
}
