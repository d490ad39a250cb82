package internal

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"askpepper/types"

	"github.com/google/uuid"
)

// DefaultMinLength is the shortest text kept. Most shorter entries are junk.
const DefaultMinLength = 200

// Some entries consist of a bare date such as "12-gen-2020".
var dateRe = regexp.MustCompile(`\d{1,2}-(gen|feb|mar|apr|mag|giu|lug|ago|set|ott|nov|dic)-\d{4}`)

// RemoveDates strips day-month-year tokens with Italian month abbreviations.
func RemoveDates(s string) string {
	return dateRe.ReplaceAllString(s, "")
}

// Preprocess cleans the records and drops those whose text is empty or shorter
// than minLength characters. Survivors keep their relative order.
func Preprocess(records []types.RawRecord, minLength int) []types.RawRecord {
	out := make([]types.RawRecord, 0, len(records))
	for _, r := range records {
		r.Text = strings.TrimSpace(RemoveDates(r.Text))
		if r.Text == "" {
			continue
		}
		if utf8.RuneCountInString(r.Text) < minLength {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ToDocuments turns cleaned records into documents. Title and address travel
// along as metadata.
func ToDocuments(records []types.RawRecord) []types.Document {
	docs := make([]types.Document, len(records))
	for i, r := range records {
		docs[i] = types.Document{
			ID:      DocumentID(r),
			Title:   r.Title,
			URL:     r.Address,
			Content: r.Text,
		}
	}
	return docs
}

func DocumentID(r types.RawRecord) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(r.Address+"\x00"+r.Title+"\x00"+r.Text))
}
