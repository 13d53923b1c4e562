package match

import (
	"strings"
	"unicode"
)

// identifierTokens are trailing tokens that mark a field as an identifier.
var identifierTokens = map[string]bool{
	"id":   true,
	"ids":  true,
	"uuid": true,
	"guid": true,
}

// NormalizeIdent folds an identifier for case and separator insensitive comparison.
// "order_id", "orderId" and "Order-ID" all normalize to "orderid".
func NormalizeIdent(s string) string {
	return strings.ToLower(strings.Join(tokenizeCamelCase(s), ""))
}

// TokenizeIdent splits an identifier into lowercase tokens.
// Examples:
//   - "OrderID" -> ["order", "id"]
//   - "customer_name" -> ["customer", "name"]
//   - "getHTTPResponse" -> ["get", "http", "response"]
func TokenizeIdent(s string) []string {
	tokens := tokenizeCamelCase(s)
	for i, t := range tokens {
		tokens[i] = strings.ToLower(t)
	}

	return tokens
}

// IsIdentifierName reports whether a field name looks like an identifier:
// "id" itself, or a name whose last token is id, ids, uuid or guid.
// Lowercase run-on names such as "paid" or "valid" are not identifiers.
func IsIdentifierName(name string) bool {
	tokens := TokenizeIdent(name)
	if len(tokens) == 0 {
		return false
	}

	return identifierTokens[tokens[len(tokens)-1]]
}

// StripModelAffixes removes role and transport suffixes from a model name
// and returns the remaining tokens joined by underscores.
// "PetResponse" -> "pet", "CreateOrderRequestDTO" -> "create_order".
func StripModelAffixes(name string) string {
	tokens := TokenizeIdent(name)

	for len(tokens) > 0 {
		last := tokens[len(tokens)-1]
		if !modelSuffixes[last] {
			break
		}

		tokens = tokens[:len(tokens)-1]
	}

	return strings.Join(tokens, "_")
}

var modelSuffixes = map[string]bool{
	"request":  true,
	"response": true,
	"model":    true,
	"dto":      true,
	"body":     true,
	"payload":  true,
	"schema":   true,
}

// tokenizeCamelCase splits a CamelCase, camelCase or separated identifier into tokens.
func tokenizeCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var (
		tokens  []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			flush()
			continue
		}

		if i > 0 && shouldStartNewToken(runes, i) {
			flush()
		}

		current.WriteRune(r)
	}

	flush()

	return tokens
}

// isSeparator returns true if the rune separates identifier words.
func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.'
}

// shouldStartNewToken determines if a new token should start at position i.
func shouldStartNewToken(runes []rune, i int) bool {
	r := runes[i]
	prev := runes[i-1]
	isUpper := unicode.IsUpper(r)
	isPrevUpper := unicode.IsUpper(prev)

	// "orderID" splits before 'I'
	if isUpper && !isPrevUpper && !isSeparator(prev) {
		return true
	}

	// "XMLParser" splits before 'P'
	hasNextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

	return isUpper && isPrevUpper && hasNextLower
}
