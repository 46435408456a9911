package agent

import "math/rand"

// Quotes are the lines shown when a focus session starts.
var Quotes = []string{
	"We suffer more often in imagination than in reality. – Seneca",
	"Discipline is doing what you hate to do, but doing it like you love it.",
	"Waste no more time arguing what a good man should be. Be one. – Aurelius",
	"Focus on the process, not the outcome. – Kaizen",
	"You have power over your mind - not outside events. – Aurelius",
	"Discipline is freedom.",
}

// QuotePicker returns a Quote function choosing from quotes with intn,
// which must behave like rand.Intn. An empty table yields "".
func QuotePicker(quotes []string, intn func(n int) int) func() string {
	return func() string {
		if len(quotes) == 0 {
			return ""
		}
		return quotes[intn(len(quotes))]
	}
}

// RandomQuote returns one of Quotes at random.
func RandomQuote() string {
	return QuotePicker(Quotes, rand.Intn)()
}
