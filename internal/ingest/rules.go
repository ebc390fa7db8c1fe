package ingest

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FieldOp is a normalization applied to one text field after cleaning
type FieldOp string

// Supported field operations
const (
	OpNone  FieldOp = "none"
	OpTitle FieldOp = "title"
	OpLower FieldOp = "lower"
	OpUpper FieldOp = "upper"
	OpText  FieldOp = "text"
)

// Rule parsing errors
var (
	ErrUnknownField   = errors.New("unknown tender field")
	ErrUnknownFieldOp = errors.New("unknown field operation")
	ErrMalformedRule  = errors.New("field rule must look like field=op")
)

// Text fields that accept a rule, by wire name
const (
	FieldTitle          = "title"
	FieldDescription    = "description"
	FieldTenderNumber   = "tenderNumber"
	FieldOfficeLocation = "officeLocation"
	FieldEmail          = "email"
	FieldAddress        = "address"
	FieldProvince       = "province"
	FieldAudience       = "audience"
)

var ruleFields = map[string]bool{
	FieldTitle:          true,
	FieldDescription:    true,
	FieldTenderNumber:   true,
	FieldOfficeLocation: true,
	FieldEmail:          true,
	FieldAddress:        true,
	FieldProvince:       true,
	FieldAudience:       true,
}

// FieldRules maps a tender field to the operation applied to it.
// Fields without an entry are only cleaned.
type FieldRules map[string]FieldOp

// ParseFieldRules parses "field=op" pairs separated by commas
func ParseFieldRules(s string) (FieldRules, error) {
	rules := FieldRules{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		field, op, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMalformedRule, pair)
		}
		field = strings.TrimSpace(field)
		op = strings.ToLower(strings.TrimSpace(op))

		if !ruleFields[field] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		if !validOp(FieldOp(op)) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFieldOp, op)
		}
		rules[field] = FieldOp(op)
	}

	return rules, nil
}

// String renders the rules in the form accepted by ParseFieldRules
func (r FieldRules) String() string {
	pairs := make([]string, 0, len(r))
	for field, op := range r {
		pairs = append(pairs, field+"="+string(op))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func validOp(op FieldOp) bool {
	switch op {
	case OpNone, OpTitle, OpLower, OpUpper, OpText:
		return true
	}
	return false
}

// lineBreaks matches a run of line breaks and the blanks around it
var lineBreaks = regexp.MustCompile(`[ \t]*[\r\n]+[ \t]*`)

// cleanText replaces line breaks with a single space and trims the result
func cleanText(s string) string {
	return strings.TrimSpace(lineBreaks.ReplaceAllString(s, " "))
}

// apply runs the field's operation and then cleans the value
func (r FieldRules) apply(field, value string) string {
	switch r[field] {
	case OpTitle:
		// a Caser keeps state, so one per call
		value = cases.Title(language.English).String(value)
	case OpLower:
		value = strings.ToLower(value)
	case OpUpper:
		value = strings.ToUpper(value)
	case OpText:
		value = htmlToText(value)
	}
	return cleanText(value)
}

func htmlToText(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})
	return doc.Text()
}
