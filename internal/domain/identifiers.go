package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const alnum = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// randomCode derives n unambiguous upper-case characters from a random UUID.
func randomCode(n int) string {
	var b strings.Builder
	for b.Len() < n {
		id := uuid.New()
		for _, x := range id {
			if b.Len() == n {
				break
			}
			b.WriteByte(alnum[int(x)%len(alnum)])
		}
	}
	return b.String()
}

// NewID returns a new random identifier.
func NewID() string { return uuid.NewString() }

// NewTrackingNumber formats <PREFIX><YYMMDD><6 chars>, e.g. CTC260118K7M2QX.
func NewTrackingNumber(prefix string, now time.Time) string {
	return strings.ToUpper(prefix) + now.UTC().Format("060102") + randomCode(6)
}

// InvoiceNumber formats INV-<YYYY>-<5 digit sequence>.
func InvoiceNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s%05d", InvoiceNumberStem(prefix, year), seq)
}

// InvoiceNumberStem is the part shared by all invoice numbers of a year.
func InvoiceNumberStem(prefix string, year int) string {
	if prefix == "" {
		prefix = "INV"
	}
	return fmt.Sprintf("%s-%d-", prefix, year)
}

// NewTicketNumber formats <PREFIX>-TKT-<8 chars>.
func NewTicketNumber(prefix string) string {
	return strings.ToUpper(prefix) + "-TKT-" + randomCode(8)
}
