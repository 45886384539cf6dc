package communication

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type VariableType string

const (
	VariableText     VariableType = "text"
	VariableDate     VariableType = "date"
	VariableNumber   VariableType = "number"
	VariableCurrency VariableType = "currency"
	VariableList     VariableType = "list"
)

// DateLayout is used when a date variable is substituted into a template.
const DateLayout = "January 2, 2006"

var VariableTypeErr = errors.New("Variable does not match its declared type")

// Value is a single template variable. Exactly one of the payload fields
// is meaningful, selected by the kind.
type Value struct {
	kind   VariableType
	text   string
	number float64
	date   time.Time
	list   []string
}

// Variables is the bag of values substituted into a template.
type Variables map[string]Value

func Text(s string) Value {
	return Value{kind: VariableText, text: s}
}

func Number(n float64) Value {
	return Value{kind: VariableNumber, number: n}
}

// Currency holds a plain amount; any "$" or grouping must come from the template.
func Currency(amount float64) Value {
	return Value{kind: VariableCurrency, number: amount}
}

func Date(t time.Time) Value {
	return Value{kind: VariableDate, date: t}
}

func List(items ...string) Value {
	return Value{kind: VariableList, list: append([]string(nil), items...)}
}

func (v Value) Type() VariableType {
	return v.kind
}

// Float returns the numeric payload for number and currency values.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case VariableNumber, VariableCurrency:
		return v.number, true

	case VariableText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
		return f, err == nil

	default:
		return 0, false
	}
}

func (v Value) String() string {
	switch v.kind {
	case VariableNumber, VariableCurrency:
		return strconv.FormatFloat(v.number, 'f', -1, 64)

	case VariableDate:
		return v.date.Format(DateLayout)

	case VariableList:
		return strings.Join(v.list, ", ")

	default:
		return v.text
	}
}

// DecodeVariables converts loosely typed input, typically decoded JSON, into
// Variables, checking every declared variable of tpl against its type.
// Undeclared keys are accepted as text or number when their shape allows it.
func DecodeVariables(tpl Template, raw map[string]interface{}) (Variables, error) {
	declared := make(map[string]VariableType, len(tpl.Variables))
	for _, v := range tpl.Variables {
		declared[v.Name] = v.Type
	}

	vars := make(Variables, len(raw))

	for name, in := range raw {
		kind, ok := declared[name]
		if !ok {
			kind = guessType(in)
		}

		value, err := decodeValue(kind, in)
		if err != nil {
			return nil, errors.Wrapf(err, "variable %s", name)
		}

		vars[name] = value
	}

	return vars, nil
}

func guessType(in interface{}) VariableType {
	switch in.(type) {
	case float64, float32, int, int64:
		return VariableNumber

	case []interface{}, []string:
		return VariableList

	default:
		return VariableText
	}
}

func decodeValue(kind VariableType, in interface{}) (Value, error) {
	switch kind {
	case VariableText:
		switch t := in.(type) {
		case string:
			return Text(t), nil
		case float64:
			return Text(strconv.FormatFloat(t, 'f', -1, 64)), nil
		case bool:
			return Text(strconv.FormatBool(t)), nil
		}

	case VariableNumber, VariableCurrency:
		var n float64
		switch t := in.(type) {
		case float64:
			n = t
		case float32:
			n = float64(t)
		case int:
			n = float64(t)
		case int64:
			n = float64(t)
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
			if err != nil {
				return Value{}, errors.Wrapf(VariableTypeErr, "expected %s, got %q", kind, t)
			}
			n = f
		default:
			return Value{}, errors.Wrapf(VariableTypeErr, "expected %s, got %T", kind, in)
		}

		if kind == VariableCurrency {
			return Currency(n), nil
		}

		return Number(n), nil

	case VariableDate:
		switch t := in.(type) {
		case time.Time:
			return Date(t), nil
		case string:
			for _, layout := range []string{time.RFC3339, "2006-01-02"} {
				if parsed, err := time.Parse(layout, t); err == nil {
					return Date(parsed), nil
				}
			}
		}

	case VariableList:
		switch t := in.(type) {
		case []string:
			return List(t...), nil
		case []interface{}:
			items := make([]string, 0, len(t))
			for _, item := range t {
				s, ok := item.(string)
				if !ok {
					return Value{}, errors.Wrapf(VariableTypeErr, "expected list of text, got %T item", item)
				}
				items = append(items, s)
			}
			return List(items...), nil
		}
	}

	return Value{}, errors.Wrapf(VariableTypeErr, "expected %s, got %T", kind, in)
}
