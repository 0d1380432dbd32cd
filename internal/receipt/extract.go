// Package receipt turns OCR text of a shop receipt into a suggested amount
// and description.
package receipt

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"conti/internal/core"
)

// DefaultDescription is used when no line qualifies as a description.
const DefaultDescription = "Scontrino scansionato"

const (
	maxDescriptionLines = 3
	maxDescriptionRunes = 200
	descriptionSep      = " · "
	// Fallback amounts must stay below 10000 euros.
	fallbackCeilingCents = 1_000_000
)

// Result is the extractor output. Amount is a decimal string using '.' or
// empty when nothing plausible was found.
type Result struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

// Money parses Amount. ok is false when Amount is empty or unusable.
func (r Result) Money() (core.Money, bool) {
	if r.Amount == "" {
		return core.Money{}, false
	}
	m, err := core.NewMoney(r.Amount)
	if err != nil {
		return core.Money{}, false
	}
	return m, true
}

const amountToken = `(\d+[.,]\d{2})`

// totalPatterns are tried in order; the first with a match on any line wins.
var totalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)totale\s*[:\s€]*\s*` + amountToken),
	regexp.MustCompile(`(?i)tot(?:ale)?\s*[:\s€]*\s*` + amountToken),
	regexp.MustCompile(`(?i)total\s*[:\s€]*\s*` + amountToken),
	regexp.MustCompile(`(?i)dovuto\s*[:\s€]*\s*` + amountToken),
	regexp.MustCompile(`(?i)pagamento\s*[:\s€]*\s*` + amountToken),
	regexp.MustCompile(`€\s*` + amountToken),
	regexp.MustCompile(amountToken + `\s*€`),
}

var anyAmount = regexp.MustCompile(amountToken)

// skipLine matches header and fiscal lines that never describe a purchase.
var skipLine = regexp.MustCompile(`(?i)^(data|ora|scontrino|ricevuta|n\.|nr|cf|p\.iva|tel|via|cap|cassa|operatore)`)

// Extract is pure and never fails: unusable text yields an empty amount and
// the default description.
func Extract(text string) Result {
	lines := splitLines(text)
	return Result{
		Amount:      findAmount(lines),
		Description: buildDescription(lines),
	}
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func findAmount(lines []string) string {
	for _, re := range totalPatterns {
		// Totals sit at the bottom of a receipt.
		for i := len(lines) - 1; i >= 0; i-- {
			if m := re.FindStringSubmatch(lines[i]); m != nil {
				return strings.ReplaceAll(m[1], ",", ".")
			}
		}
	}

	var best int64
	for _, l := range lines {
		for _, m := range anyAmount.FindAllStringSubmatch(l, -1) {
			c, ok := tokenCents(m[1])
			if ok && c > best && c < fallbackCeilingCents {
				best = c
			}
		}
	}
	if best == 0 {
		return ""
	}
	return fmt.Sprintf("%d.%02d", best/100, best%100)
}

// tokenCents converts a "123,45" or "123.45" token. Tokens too long for
// int64 are ignored.
func tokenCents(tok string) (int64, bool) {
	var cents int64
	for _, r := range tok {
		if r == '.' || r == ',' {
			continue
		}
		if cents > (1<<62)/10 {
			return 0, false
		}
		cents = cents*10 + int64(r-'0')
	}
	return cents, true
}

func buildDescription(lines []string) string {
	picked := make([]string, 0, maxDescriptionLines)
	for _, l := range lines {
		if len(picked) == maxDescriptionLines {
			break
		}
		n := utf8.RuneCountInString(l)
		if skipLine.MatchString(l) || n <= 2 || n >= 80 {
			continue
		}
		picked = append(picked, l)
	}
	if len(picked) == 0 {
		return DefaultDescription
	}
	desc := strings.Join(picked, descriptionSep)
	if utf8.RuneCountInString(desc) > maxDescriptionRunes {
		desc = string([]rune(desc)[:maxDescriptionRunes])
	}
	return desc
}
