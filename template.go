package communication

type Category string

const (
	CategoryOnboarding   Category = "onboarding"
	CategoryDocuments    Category = "documents"
	CategoryFiling       Category = "filing"
	CategoryAppointments Category = "appointments"
	CategoryBilling      Category = "billing"
	CategoryDeadlines    Category = "deadlines"
	CategoryGeneral      Category = "general"
)

// Usage restricts which channel a template is written for.
type Usage string

const (
	UsageEmail Usage = "email"
	UsageSms   Usage = "sms"
	UsageInApp Usage = "in_app"
	UsageAll   Usage = "all"
)

type TriggerEvent string

const (
	EventClientSignup         TriggerEvent = "client_signup"
	EventDocumentUploaded     TriggerEvent = "document_uploaded"
	EventReturnCompleted      TriggerEvent = "return_completed"
	EventPaymentDue           TriggerEvent = "payment_due"
	EventAppointmentScheduled TriggerEvent = "appointment_scheduled"
	EventDeadlineApproaching  TriggerEvent = "deadline_approaching"
	EventManual               TriggerEvent = "manual"
)

type Variable struct {
	Name     string       `json:"name"`
	Type     VariableType `json:"type"`
	Required bool         `json:"required"`
}

// Trigger describes when an external job runner should send a template.
// Nothing in this package schedules triggers.
type Trigger struct {
	Event        TriggerEvent      `json:"event"`
	Conditions   map[string]string `json:"conditions,omitempty"`
	DelayMinutes int               `json:"delayMinutes"`
	Active       bool              `json:"active"`
}

type PersonalizationRule struct {
	Condition Condition `json:"condition"`
	Variation string    `json:"variation"`
	Priority  int       `json:"priority"`
}

type Template struct {
	Id          string `sql:",pk" json:"id"`
	Description string `json:"description"`

	Category Category `sql:",notnull" json:"category"`
	Usage    Usage    `sql:",notnull" json:"usage"`
	Active   bool     `sql:",notnull" json:"active"`

	Subject string `json:"subject"`
	Body    string `json:"body"`

	Variables []Variable            `json:"variables"`
	Triggers  []Trigger             `json:"triggers"`
	Rules     []PersonalizationRule `json:"rules"`
}

// MissingRequired lists the required variables of the template that vars does not provide.
func (t Template) MissingRequired(vars Variables) []string {
	var missing []string

	for _, v := range t.Variables {
		if !v.Required {
			continue
		}

		if _, ok := vars[v.Name]; !ok {
			missing = append(missing, v.Name)
		}
	}

	return missing
}

func (t Template) clone() Template {
	c := t

	c.Variables = append([]Variable(nil), t.Variables...)
	c.Rules = append([]PersonalizationRule(nil), t.Rules...)

	if t.Triggers != nil {
		c.Triggers = make([]Trigger, len(t.Triggers))
		for i, trigger := range t.Triggers {
			c.Triggers[i] = trigger

			if trigger.Conditions != nil {
				c.Triggers[i].Conditions = make(map[string]string, len(trigger.Conditions))
				for k, v := range trigger.Conditions {
					c.Triggers[i].Conditions[k] = v
				}
			}
		}
	}

	return c
}
