package assistant

import "strings"

type Intent string

const (
	IntentNone        Intent = "none"
	IntentOrder       Intent = "order"
	IntentReservation Intent = "reservation"
)

// Classifier decides whether an utterance should start a collection.
// Matching is plain substring membership on the lower-cased utterance and
// the order set always wins over the reservation set.
type Classifier struct {
	order       []string
	reservation []string
}

func NewClassifier(orderKeywords, reservationKeywords []string) *Classifier {
	return &Classifier{
		order:       normalizeKeywords(orderKeywords),
		reservation: normalizeKeywords(reservationKeywords),
	}
}

func (c *Classifier) Classify(utterance string) Intent {
	m := strings.ToLower(utterance)
	if strings.TrimSpace(m) == "" {
		return IntentNone
	}
	if containsAny(m, c.order) {
		return IntentOrder
	}
	if containsAny(m, c.reservation) {
		return IntentReservation
	}
	return IntentNone
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, k := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
