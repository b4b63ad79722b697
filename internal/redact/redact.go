// Package redact masks contact and identity numbers in free text so patient
// descriptions can be logged without copying them verbatim.
package redact

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Kind names the class of a detected identifier
type Kind string

const (
	KindEmail      Kind = "email"
	KindPhone      Kind = "phone"
	KindSSN        Kind = "ssn"
	KindCreditCard Kind = "credit_card"
	KindIPAddress  Kind = "ip_address"
)

// Match is one detected identifier, as a byte range into the input
type Match struct {
	Kind  Kind
	Value string
	Start int
	End   int
}

type detector struct {
	kind     Kind
	pattern  *regexp.Regexp
	validate func(string) bool
}

var detectors = []detector{
	{kind: KindEmail, pattern: regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)},
	{kind: KindSSN, pattern: regexp.MustCompile(`\b[0-9]{3}-[0-9]{2}-[0-9]{4}\b`)},
	{kind: KindSSN, pattern: regexp.MustCompile(`\b[0-9]{9}\b`), validate: looksLikeSSN},
	{kind: KindCreditCard, pattern: regexp.MustCompile(`\b(?:[0-9][ -]?){12,18}[0-9]\b`), validate: luhnCheck},
	{kind: KindIPAddress, pattern: regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`)},
	// North American numbers, then anything written with a leading country code
	{kind: KindPhone, pattern: regexp.MustCompile(`(?:\+?1[-. ]?)?\(?\b[0-9]{3}\)?[-. ]?[0-9]{3}[-. ][0-9]{4}\b`)},
	{kind: KindPhone, pattern: regexp.MustCompile(`\+[0-9]{1,3}[-. ]?[0-9]{2,4}(?:[-. ]?[0-9]{2,4}){1,3}\b`)},
}

// Find returns every identifier in s, ordered by position, with
// overlapping matches collapsed into the earliest and longest one
func Find(s string) []Match {
	var found []Match
	for _, d := range detectors {
		for _, loc := range d.pattern.FindAllStringIndex(s, -1) {
			value := s[loc[0]:loc[1]]
			if d.validate != nil && !d.validate(value) {
				continue
			}
			found = append(found, Match{Kind: d.kind, Value: value, Start: loc[0], End: loc[1]})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Start != found[j].Start {
			return found[i].Start < found[j].Start
		}
		return found[i].End > found[j].End
	})

	merged := found[:0]
	for _, m := range found {
		if n := len(merged); n > 0 && m.Start < merged[n-1].End {
			continue
		}
		merged = append(merged, m)
	}
	return merged
}

// Contains reports whether s carries any detectable identifier
func Contains(s string) bool {
	return len(Find(s)) > 0
}

// String replaces every identifier in s with a [KIND] placeholder
func String(s string) string {
	matches := Find(s)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m.Start])
		b.WriteString(placeholder(m.Kind))
		last = m.End
	}
	b.WriteString(s[last:])
	return b.String()
}

// Excerpt redacts s, collapses whitespace and cuts the result to at most
// max runes, appending an ellipsis when it was cut
func Excerpt(s string, max int) string {
	out := strings.Join(strings.Fields(String(s)), " ")
	if max <= 0 || utf8.RuneCountInString(out) <= max {
		return out
	}
	runes := []rune(out)
	return string(runes[:max]) + "..."
}

func placeholder(kind Kind) string {
	switch kind {
	case KindEmail:
		return "[EMAIL]"
	case KindPhone:
		return "[PHONE]"
	case KindSSN:
		return "[SSN]"
	case KindCreditCard:
		return "[CARD]"
	case KindIPAddress:
		return "[IP]"
	default:
		return "[REDACTED]"
	}
}

// looksLikeSSN rules out unassigned area, group and serial numbers
func looksLikeSSN(s string) bool {
	if len(s) != 9 {
		return false
	}
	if s[:3] == "000" || s[3:5] == "00" || s[5:] == "0000" {
		return false
	}
	return !strings.HasPrefix(s, "666") && !strings.HasPrefix(s, "9")
}

func luhnCheck(number string) bool {
	number = strings.NewReplacer(" ", "", "-", "").Replace(number)
	if len(number) < 13 || len(number) > 19 {
		return false
	}

	sum := 0
	second := false
	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')
		if second {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		second = !second
	}
	return sum%10 == 0
}
