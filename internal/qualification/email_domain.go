package qualification

import (
	"regexp"
	"strings"
)

var nonWordChars = regexp.MustCompile(`[^a-z0-9\s]`)

// companyWords returns the lowercase words of a legal name longer than three
// characters, after stripping everything except ASCII letters, digits and
// whitespace.
func companyWords(legalName string) []string {
	cleaned := nonWordChars.ReplaceAllString(strings.ToLower(legalName), "")
	var words []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	return words
}

// emailDomain returns the part after the last '@', or "" when there is none.
func emailDomain(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// EmailDomainMatchesCompany reports whether the contact email's domain
// mentions at least one significant word of the company's legal name.
//
// This is a best-effort business heuristic, not an ownership check: a domain
// such as "alredwan.com" matches "Al Redwan Trading" through "redwan", while
// short words ("al", "co", "ltd") are ignored. A name with no word longer than
// three characters always matches.
func EmailDomainMatchesCompany(email, legalName string) bool {
	domain := emailDomain(email)
	if domain == "" {
		return false
	}

	words := companyWords(legalName)
	if len(words) == 0 {
		return true
	}

	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	if pattern, err := regexp.Compile(`(?i)` + strings.Join(quoted, "|")); err == nil && pattern.MatchString(domain) {
		return true
	}

	for _, w := range words {
		if strings.Contains(domain, w) {
			return true
		}
	}
	return false
}
