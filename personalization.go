package communication

import (
	"sort"
	"strconv"
	"strings"
)

type ConditionKind string

const (
	ConditionGreaterThan ConditionKind = "greater_than"
	ConditionLessThan    ConditionKind = "less_than"
	ConditionEquals      ConditionKind = "equals"
	ConditionPresent     ConditionKind = "present"
)

// Condition is one of a closed set of checks against a named field.
// Build it with GreaterThan, LessThan, Equals or Present.
type Condition struct {
	Kind      ConditionKind `json:"kind"`
	Field     string        `json:"field"`
	Threshold float64       `json:"threshold,omitempty"`
	Value     string        `json:"value,omitempty"`
}

func GreaterThan(field string, threshold float64) Condition {
	return Condition{Kind: ConditionGreaterThan, Field: field, Threshold: threshold}
}

func LessThan(field string, threshold float64) Condition {
	return Condition{Kind: ConditionLessThan, Field: field, Threshold: threshold}
}

func Equals(field, value string) Condition {
	return Condition{Kind: ConditionEquals, Field: field, Value: value}
}

func Present(field string) Condition {
	return Condition{Kind: ConditionPresent, Field: field}
}

// ClientProfile carries what is known about the recipient when personalizing.
type ClientProfile struct {
	ClientId        string    `json:"clientId"`
	Name            string    `json:"name"`
	FilingStatus    string    `json:"filingStatus"`
	ReturningClient bool      `json:"returningClient"`
	BusinessOwner   bool      `json:"businessOwner"`
	YearsAsClient   int       `json:"yearsAsClient"`
	Attributes      Variables `json:"-"` // decoded separately, see DecodeVariables
}

func (p *ClientProfile) lookup(field string) (Value, bool) {
	if p == nil {
		return Value{}, false
	}

	switch field {
	case "filingStatus":
		return Text(p.FilingStatus), p.FilingStatus != ""
	case "returningClient":
		return Text(strconv.FormatBool(p.ReturningClient)), true
	case "businessOwner":
		return Text(strconv.FormatBool(p.BusinessOwner)), true
	case "yearsAsClient":
		return Number(float64(p.YearsAsClient)), true
	}

	v, ok := p.Attributes[field]
	return v, ok
}

// Matches evaluates the condition. Variables take precedence over profile fields.
func (c Condition) Matches(vars Variables, profile *ClientProfile) bool {
	value, ok := vars[c.Field]
	if !ok {
		value, ok = profile.lookup(c.Field)
	}

	if !ok {
		return false
	}

	switch c.Kind {
	case ConditionPresent:
		return value.String() != ""

	case ConditionEquals:
		return strings.EqualFold(value.String(), c.Value)

	case ConditionGreaterThan:
		n, ok := value.Float()
		return ok && n > c.Threshold

	case ConditionLessThan:
		n, ok := value.Float()
		return ok && n < c.Threshold

	default:
		return false
	}
}

// variation rewrites rendered content. Variations must leave content
// unchanged when it is already in their target shape.
type variation func(Rendered) Rendered

const (
	VariationLargeRefund     = "large_refund_celebration"
	VariationReturningClient = "returning_client_welcome"
	VariationDeadlineUrgency = "deadline_urgency"
	VariationInstallmentPlan = "installment_plan_offer"
)

const installmentPlanNote = "If paying the full balance at once is difficult, reply to this message and we will set up an installment plan with you."

var variations = map[string]variation{
	VariationLargeRefund: func(r Rendered) Rendered {
		r.Body = strings.Replace(r.Body, "Excellent news!", "Fantastic news!", -1)
		return r
	},

	VariationReturningClient: func(r Rendered) Rendered {
		r.Subject = strings.Replace(r.Subject, "Welcome to", "Welcome back to", -1)
		r.Body = strings.Replace(r.Body, "Welcome to", "Welcome back to", -1)
		return r
	},

	VariationDeadlineUrgency: func(r Rendered) Rendered {
		if !strings.HasPrefix(r.Subject, "URGENT: ") {
			r.Subject = "URGENT: " + r.Subject
		}
		return r
	},

	VariationInstallmentPlan: func(r Rendered) Rendered {
		if !strings.Contains(r.Body, installmentPlanNote) {
			r.Body = r.Body + "\n\n" + installmentPlanNote
		}
		return r
	},
}

// personalize applies the matching rules in ascending priority. Unknown
// variation tags leave the content untouched.
func personalize(r Rendered, rules []PersonalizationRule, vars Variables, profile *ClientProfile) Rendered {
	ordered := append([]PersonalizationRule(nil), rules...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	for _, rule := range ordered {
		if !rule.Condition.Matches(vars, profile) {
			continue
		}

		if apply, ok := variations[rule.Variation]; ok {
			r = apply(r)
		}
	}

	return r
}
