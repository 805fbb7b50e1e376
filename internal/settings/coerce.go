package settings

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"ecomkit/pkg/shopify"
)

// FieldError is one rejected form value.
type FieldError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// ValidationError collects every rejected value of a submission.
type ValidationError struct {
	Code   string       `json:"code"`
	Fields []FieldError `json:"fields"`
}

func (e ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Key+": "+f.Message)
	}
	return "invalid settings: " + strings.Join(parts, "; ")
}

// Coerce parses a raw form or metafield value and returns its canonical metafield string.
func (f *Field) Coerce(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch f.Type {
	case shopify.TypeBoolean:
		switch strings.ToLower(raw) {
		case "true", "on", "1", "yes":
			return "true", nil
		case "false", "off", "0", "no":
			return "false", nil
		}
		return "", fmt.Errorf("doit être vrai ou faux")

	case shopify.TypeDecimal:
		d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
		if err != nil {
			return "", fmt.Errorf("doit être un nombre")
		}
		if err := f.checkRange(d); err != nil {
			return "", err
		}
		return d.StringFixed(2), nil

	case shopify.TypeInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return "", fmt.Errorf("doit être un nombre entier")
		}
		if err := f.checkRange(decimal.NewFromInt(n)); err != nil {
			return "", err
		}
		return strconv.FormatInt(n, 10), nil

	case shopify.TypeSingleLineTxt:
		if strings.ContainsAny(raw, "\r\n") {
			return "", fmt.Errorf("doit tenir sur une ligne")
		}
		if f.MaxLength > 0 && utf8.RuneCountInString(raw) > f.MaxLength {
			return "", fmt.Errorf("%d caractères maximum", f.MaxLength)
		}
		if len(f.Options) > 0 && !slices.Contains(f.Options, raw) {
			return "", fmt.Errorf("valeur attendue : %s", strings.Join(f.Options, ", "))
		}
		if f.re != nil && raw != "" && !f.re.MatchString(raw) {
			return "", fmt.Errorf("format invalide")
		}
		return raw, nil
	}
	return "", fmt.Errorf("unsupported type %q", f.Type)
}

func (f *Field) checkRange(d decimal.Decimal) error {
	if f.min != nil && d.LessThan(*f.min) {
		return fmt.Errorf("doit être ≥ %s", f.min.String())
	}
	if f.max != nil && d.GreaterThan(*f.max) {
		return fmt.Errorf("doit être ≤ %s", f.max.String())
	}
	return nil
}

// Submission is a validated set of values, canonicalised and ready to write.
type Submission struct {
	Values map[string]string
}

// keysOf returns the keys of values in schema order.
func (s *Schema) keysOf(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return s.index[keys[i]] < s.index[keys[j]] })
	return keys
}

// ParseSubmission validates a raw form against the schema. Empty values are skipped
// rather than written, so a blank input never overwrites a stored value.
func (s *Schema) ParseSubmission(form map[string]string) (Submission, error) {
	out := Submission{Values: map[string]string{}}
	var errs []FieldError

	for key, raw := range form {
		f, ok := s.Field(key)
		if !ok {
			errs = append(errs, FieldError{Key: key, Message: "champ inconnu"})
			continue
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		v, err := f.Coerce(raw)
		if err != nil {
			errs = append(errs, FieldError{Key: key, Message: err.Error()})
			continue
		}
		out.Values[key] = v
	}

	for _, r := range s.Ordering {
		lo, okLo := out.Values[r.Lower]
		hi, okHi := out.Values[r.Upper]
		if !okLo || !okHi {
			continue
		}
		dlo, _ := decimal.NewFromString(lo)
		dhi, _ := decimal.NewFromString(hi)
		if dlo.GreaterThan(dhi) {
			errs = append(errs, FieldError{Key: r.Lower, Message: fmt.Sprintf("doit être ≤ %s", r.Upper)})
		}
	}

	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Key < errs[j].Key })
		return Submission{}, ValidationError{Code: "SETTINGS_INVALID", Fields: errs}
	}
	return out, nil
}

// Defaults returns every field's default value in canonical form.
func (s *Schema) Defaults() map[string]string {
	out := make(map[string]string, len(s.Fields))
	for i := range s.Fields {
		f := &s.Fields[i]
		out[f.Key] = f.Default
		if f.Default != "" {
			if v, err := f.Coerce(f.Default); err == nil {
				out[f.Key] = v
			}
		}
	}
	return out
}

// Typed converts canonical string values into JSON-friendly values for the admin UI.
func (s *Schema) Typed(values map[string]string) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		f, ok := s.Field(k)
		if !ok {
			continue
		}
		switch f.Type {
		case shopify.TypeBoolean:
			out[k] = v == "true"
		case shopify.TypeInteger:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				out[k] = n
			} else {
				out[k] = v
			}
		case shopify.TypeDecimal:
			if d, err := decimal.NewFromString(v); err == nil {
				out[k] = d.InexactFloat64()
			} else {
				out[k] = v
			}
		default:
			out[k] = v
		}
	}
	return out
}
