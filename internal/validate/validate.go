// Package validate holds form validation as a plain table: each field maps to
// an ordered list of predicates with the message shown when one fails.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rule is one predicate over a field value.
type Rule struct {
	Check   func(value string) bool
	Message string
}

// Field names a form field and its rules, evaluated in order.
type Field struct {
	Name  string
	Rules []Rule
}

// Rules is a validation table, applied in declaration order.
type Rules []Field

// Errors maps a field name to the first failed rule's message.
type Errors map[string]string

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// First returns one message in table order, for single-line displays.
func (e Errors) First(rules Rules) string {
	for _, f := range rules {
		if msg, ok := e[f.Name]; ok {
			return msg
		}
	}
	return ""
}

// Validate applies the table to values. Only the first failing rule per field is kept.
// It returns nil when every field passes.
func (r Rules) Validate(values map[string]string) Errors {
	errs := Errors{}
	for _, f := range r {
		v := values[f.Name]
		for _, rule := range f.Rules {
			if !rule.Check(v) {
				errs[f.Name] = rule.Message
				break
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func Required(msg string) Rule {
	return Rule{Message: msg, Check: func(v string) bool { return strings.TrimSpace(v) != "" }}
}

func MinLength(n int, msg string) Rule {
	return Rule{Message: msg, Check: func(v string) bool { return utf8.RuneCountInString(strings.TrimSpace(v)) >= n }}
}

func MaxLength(n int, msg string) Rule {
	return Rule{Message: msg, Check: func(v string) bool { return utf8.RuneCountInString(v) <= n }}
}

func Pattern(re *regexp.Regexp, msg string) Rule {
	return Rule{Message: msg, Check: re.MatchString}
}

// Email accepts empty values; combine with Required for mandatory addresses.
func Email(msg string) Rule {
	return Rule{Message: msg, Check: func(v string) bool {
		if strings.TrimSpace(v) == "" {
			return true
		}
		addr, err := mail.ParseAddress(v)
		return err == nil && addr.Address == strings.TrimSpace(v)
	}}
}

// OneOf matches case-insensitively against the allowed values.
func OneOf(allowed []string, msg string) Rule {
	return Rule{Message: msg, Check: func(v string) bool {
		for _, a := range allowed {
			if strings.EqualFold(a, strings.TrimSpace(v)) {
				return true
			}
		}
		return false
	}}
}

// Equals compares against another field's value captured at table build time.
func Equals(other string, msg string) Rule {
	return Rule{Message: msg, Check: func(v string) bool { return v == other }}
}

// StrongPassword requires at least one letter and one digit.
func StrongPassword(msg string) Rule {
	return Rule{Message: msg, Check: func(v string) bool {
		var letter, digit bool
		for _, r := range v {
			switch {
			case unicode.IsLetter(r):
				letter = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		return letter && digit
	}}
}
