package chapters

import (
	"regexp"
	"strings"
)

// romanExpr matches a canonical roman numeral (possibly empty).
const romanExpr = `M{0,3}(?:CM|CD|D?C{0,3})(?:XC|XL|L?X{0,3})(?:IX|IV|V?I{0,3})`

var romanPattern = regexp.MustCompile(`(?i)^` + romanExpr + `$`)

var romanValues = map[byte]int{
	'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000,
}

// RomanToInt converts a canonical roman numeral to its value.
// It reports false for empty or malformed numerals.
func RomanToInt(s string) (int, bool) {
	if s == "" || !romanPattern.MatchString(s) {
		return 0, false
	}
	s = strings.ToUpper(s)
	result, prev := 0, 0
	for i := len(s) - 1; i >= 0; i-- {
		v := romanValues[s[i]]
		if v >= prev {
			result += v
		} else {
			result -= v
		}
		prev = v
	}
	return result, true
}
