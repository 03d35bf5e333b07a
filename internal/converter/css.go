package converter

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

//go:embed stylesheet.css
var defaultStylesheet []byte

// pxValueRe matches px values for conversion to em.
var pxValueRe = regexp.MustCompile(`(\d+(?:\.\d+)?)px`)

// ptValueRe matches pt values for conversion to em.
var ptValueRe = regexp.MustCompile(`(\d+(?:\.\d+)?)pt`)

// negativeMarginRe matches negative numeric values in margin declarations.
var negativeMarginRe = regexp.MustCompile(`-\d`)

// PrepareStylesheet rewrites a stylesheet for reader use: @import rules and
// layout breaking declarations are dropped, comments removed and absolute
// font units converted to em. A nil or empty input yields the built-in
// stylesheet.
func PrepareStylesheet(data []byte) ([]byte, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		data = defaultStylesheet
	}

	p := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)
	var out bytes.Buffer
	for {
		gt, _, text := p.Next()
		switch gt {
		case css.ErrorGrammar:
			err := p.Err()
			if errors.Is(err, io.EOF) {
				return out.Bytes(), nil
			}
			if err != nil {
				return nil, fmt.Errorf("unable to parse stylesheet: %w", err)
			}

		case css.CommentGrammar:

		case css.AtRuleGrammar:
			if strings.EqualFold(string(text), "@import") {
				continue
			}
			out.Write(text)
			writeValues(&out, p.Values())
			out.WriteString(";\n")

		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			out.Write(text)
			writeValues(&out, p.Values())
			out.WriteString(" {\n")

		case css.QualifiedRuleGrammar:
			out.Write(text)
			writeValues(&out, p.Values())
			out.WriteString(", ")

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			var value bytes.Buffer
			writeValues(&value, p.Values())
			if gt == css.DeclarationGrammar && isForbiddenProperty(string(text), value.String()) {
				continue
			}
			out.WriteString("  ")
			out.Write(text)
			out.WriteString(": ")
			out.WriteString(convertUnits(strings.TrimSpace(value.String())))
			out.WriteString(";\n")

		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			out.WriteString("}\n")

		default:
			out.Write(text)
		}
	}
}

func writeValues(buf *bytes.Buffer, values []css.Token) {
	for _, v := range values {
		buf.Write(v.Data)
	}
}

// isForbiddenProperty checks if a CSS property-value pair should be removed.
func isForbiddenProperty(property, value string) bool {
	propertyLower := strings.ToLower(strings.TrimSpace(property))
	valueLower := strings.ToLower(strings.TrimSpace(value))

	switch propertyLower {
	case "position":
		return valueLower == "fixed" || valueLower == "absolute"
	case "transform", "transition", "animation":
		return true
	}

	if strings.HasPrefix(propertyLower, "transition-") || strings.HasPrefix(propertyLower, "animation-") {
		return true
	}

	// Negative margins
	if propertyLower == "margin" || strings.HasPrefix(propertyLower, "margin-") {
		return negativeMarginRe.MatchString(valueLower)
	}

	return false
}

// convertUnits converts px and pt values to em in a CSS value.
func convertUnits(s string) string {
	s = pxValueRe.ReplaceAllStringFunc(s, func(match string) string {
		val, err := strconv.ParseFloat(strings.TrimSuffix(match, "px"), 64)
		if err != nil {
			return match
		}
		return formatEm(val / 16.0)
	})
	s = ptValueRe.ReplaceAllStringFunc(s, func(match string) string {
		val, err := strconv.ParseFloat(strings.TrimSuffix(match, "pt"), 64)
		if err != nil {
			return match
		}
		return formatEm(val / 12.0)
	})
	return s
}

// formatEm formats an em value, omitting unnecessary decimal places.
func formatEm(val float64) string {
	if val == float64(int(val)) {
		return fmt.Sprintf("%dem", int(val))
	}
	return strconv.FormatFloat(val, 'f', -1, 64) + "em"
}
