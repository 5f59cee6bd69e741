package ortex

import (
	"fmt"
	"strings"
	"time"

	"github.com/ortex-financial/ortex-go/pkg/apierr"
)

const dateLayout = "2006-01-02"

// NormalizeExchange trims whitespace and upper-cases an exchange code.
func NormalizeExchange(exchange string) string {
	return strings.ToUpper(strings.TrimSpace(exchange))
}

// NormalizeTicker trims whitespace and upper-cases a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// NormalizeDate validates a date string against the YYYY-MM-DD format the API
// expects. An empty string is passed through so optional dates can be omitted.
func NormalizeDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return "", nil
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return "", apierr.NewValidation(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date))
	}
	return date, nil
}

// Date formats a time.Time in the YYYY-MM-DD format accepted by date parameters.
func Date(t time.Time) string {
	return t.Format(dateLayout)
}
