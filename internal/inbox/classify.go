package inbox

import (
	"math"
	"strings"
)

// Category is a business category assigned to a message.
type Category string

const (
	CategoryInvoice  Category = "Invoice"
	CategoryInquiry  Category = "Inquiry"
	CategorySupplier Category = "Supplier"
	CategoryPersonal Category = "Personal"
	CategoryOther    Category = "Other"
)

// Taxonomy is the ordered list of recognized categories. Earlier entries win ties.
var Taxonomy = []Category{
	CategoryInvoice,
	CategoryInquiry,
	CategorySupplier,
	CategoryPersonal,
}

// Known reports whether c is a taxonomy category or Other.
func Known(c Category) bool {
	if c == CategoryOther {
		return true
	}
	for _, t := range Taxonomy {
		if t == c {
			return true
		}
	}
	return false
}

// Classify counts case-insensitive occurrences of each category name in the
// subject and body preview and picks the most frequent one. Matching is plain
// substring matching, so "invoices" counts toward Invoice.
//
// Confidence is the winner's share of all hits, rounded half away from zero to
// two decimals. A message with no hits is Other with confidence 0.
func Classify(msg RawMessage) ClassifiedMessage {
	text := strings.ToLower(msg.Subject + " " + msg.BodyPreview)

	var (
		totalCount   int
		bestCount    int
		bestCategory = CategoryOther
	)
	for _, c := range Taxonomy {
		n := strings.Count(text, strings.ToLower(string(c)))
		totalCount += n
		if n > bestCount {
			bestCount = n
			bestCategory = c
		}
	}

	out := ClassifiedMessage{
		ID:               msg.ID,
		Category:         CategoryOther,
		ReceivedDateTime: msg.ReceivedDateTime,
		Subject:          msg.Subject,
		BodyPreview:      msg.BodyPreview,
		SenderName:       msg.Sender.EmailAddress.Name,
		SenderAddress:    msg.Sender.EmailAddress.Address,
	}
	if totalCount == 0 {
		return out
	}

	out.Category = bestCategory
	out.Confidence = round2(float64(bestCount) / float64(totalCount))
	return out
}

// ClassifyAll classifies msgs one to one, preserving order.
func ClassifyAll(msgs []RawMessage) []ClassifiedMessage {
	out := make([]ClassifiedMessage, len(msgs))
	for i, m := range msgs {
		out[i] = Classify(m)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
