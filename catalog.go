package communication

import (
	"sort"

	"github.com/pkg/errors"
)

// TemplateStore is a read-only catalog built once at startup and shared by
// reference. Templates are copied on the way in and out.
type TemplateStore struct {
	templates map[string]Template
}

func NewTemplateStore(templates ...Template) (*TemplateStore, error) {
	store := &TemplateStore{
		templates: make(map[string]Template, len(templates)),
	}

	for _, tpl := range templates {
		if tpl.Id == "" {
			return nil, errors.New("Template without id")
		}

		if _, exists := store.templates[tpl.Id]; exists {
			return nil, errors.Errorf("Duplicate template id %s", tpl.Id)
		}

		store.templates[tpl.Id] = tpl.clone()
	}

	return store, nil
}

func (s *TemplateStore) Get(id string) (Template, error) {
	tpl, ok := s.templates[id]
	if !ok {
		return Template{}, errors.Wrapf(TemplateNotFoundErr, "template %s", id)
	}

	return tpl.clone(), nil
}

func (s *TemplateStore) All() []Template {
	out := make([]Template, 0, len(s.templates))
	for _, tpl := range s.templates {
		out = append(out, tpl.clone())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Id < out[j].Id
	})

	return out
}

// ForEvent returns the active templates with an active trigger for event.
func (s *TemplateStore) ForEvent(event TriggerEvent) []Template {
	var out []Template

	for _, tpl := range s.All() {
		if !tpl.Active {
			continue
		}

		for _, trigger := range tpl.Triggers {
			if trigger.Active && trigger.Event == event {
				out = append(out, tpl)
				break
			}
		}
	}

	return out
}

// DefaultTemplates is the built-in catalog.
func DefaultTemplates() []Template {
	return []Template{
		{
			Id:          "welcome_new_client",
			Description: "Sent when a new client finishes signing up",
			Category:    CategoryOnboarding,
			Usage:       UsageEmail,
			Active:      true,
			Subject:     "Welcome to our practice, {{clientName}}!",
			Body: "Dear {{clientName}},\n\n" +
				"Welcome to our practice! I'm {{preparerName}} and I will be preparing your {{taxYear}} return.\n\n" +
				"Our first meeting is on {{appointmentDate}}. Before then, please upload your documents at {{portalUrl}}.\n\n" +
				"You can reach me at {{preparerEmail}} or {{preparerPhone}}.\n\n" +
				"Best regards,\n{{preparerName}}",
			Variables: []Variable{
				{Name: "clientName", Type: VariableText, Required: true},
				{Name: "preparerName", Type: VariableText, Required: true},
				{Name: "preparerEmail", Type: VariableText, Required: true},
				{Name: "preparerPhone", Type: VariableText, Required: true},
				{Name: "portalUrl", Type: VariableText, Required: true},
				{Name: "taxYear", Type: VariableNumber, Required: true},
				{Name: "appointmentDate", Type: VariableDate, Required: false},
			},
			Triggers: []Trigger{
				{Event: EventClientSignup, DelayMinutes: 0, Active: true},
			},
			Rules: []PersonalizationRule{
				{Condition: Equals("returningClient", "true"), Variation: VariationReturningClient, Priority: 1},
			},
		},
		{
			Id:          "document_request",
			Description: "Asks the client for missing documents",
			Category:    CategoryDocuments,
			Usage:       UsageAll,
			Active:      true,
			Subject:     "Documents needed for your {{taxYear}} return",
			Body: "Hi {{clientName}},\n\n" +
				"To continue with your return we still need: {{documentList}}.\n\n" +
				"Please upload them at {{portalUrl}} by {{dueDate}}.\n\n" +
				"Thank you,\n{{preparerName}}",
			Variables: []Variable{
				{Name: "clientName", Type: VariableText, Required: true},
				{Name: "taxYear", Type: VariableNumber, Required: true},
				{Name: "documentList", Type: VariableList, Required: true},
				{Name: "portalUrl", Type: VariableText, Required: true},
				{Name: "dueDate", Type: VariableDate, Required: true},
				{Name: "preparerName", Type: VariableText, Required: true},
			},
			Triggers: []Trigger{
				{Event: EventManual, Active: true},
			},
		},
		{
			Id:          "return_completed",
			Description: "Sent when the return has been filed",
			Category:    CategoryFiling,
			Usage:       UsageEmail,
			Active:      true,
			Subject:     "Your {{taxYear}} tax return has been filed",
			Body: "Hi {{clientName}},\n\n" +
				"Excellent news! Your {{taxYear}} return was filed on {{filingDate}}.\n\n" +
				"Your expected refund is ${{refundAmount}}.\n\n" +
				"Thank you for trusting us,\n{{preparerName}}",
			Variables: []Variable{
				{Name: "clientName", Type: VariableText, Required: true},
				{Name: "taxYear", Type: VariableNumber, Required: true},
				{Name: "filingDate", Type: VariableDate, Required: true},
				{Name: "refundAmount", Type: VariableCurrency, Required: true},
				{Name: "preparerName", Type: VariableText, Required: true},
			},
			Triggers: []Trigger{
				{Event: EventReturnCompleted, DelayMinutes: 5, Active: true},
			},
			Rules: []PersonalizationRule{
				{Condition: GreaterThan("refundAmount", 5000), Variation: VariationLargeRefund, Priority: 1},
			},
		},
		{
			Id:          "appointment_reminder",
			Description: "Reminder sent the day before an appointment",
			Category:    CategoryAppointments,
			Usage:       UsageAll,
			Active:      true,
			Subject:     "Reminder: appointment on {{appointmentDate}}",
			Body: "Hi {{clientName}},\n\n" +
				"This is a reminder of your appointment with {{preparerName}} on {{appointmentDate}} at {{appointmentTime}}.\n\n" +
				"Location: {{officeAddress}}",
			Variables: []Variable{
				{Name: "clientName", Type: VariableText, Required: true},
				{Name: "preparerName", Type: VariableText, Required: true},
				{Name: "appointmentDate", Type: VariableDate, Required: true},
				{Name: "appointmentTime", Type: VariableText, Required: true},
				{Name: "officeAddress", Type: VariableText, Required: false},
			},
			Triggers: []Trigger{
				{Event: EventAppointmentScheduled, DelayMinutes: -24 * 60, Active: true},
			},
		},
		{
			Id:          "payment_reminder",
			Description: "Reminder of an outstanding invoice",
			Category:    CategoryBilling,
			Usage:       UsageEmail,
			Active:      true,
			Subject:     "Payment reminder: ${{amountDue}} due {{dueDate}}",
			Body: "Hi {{clientName}},\n\n" +
				"Our records show a balance of ${{amountDue}} due on {{dueDate}}.\n\n" +
				"You can pay online at {{paymentUrl}}.",
			Variables: []Variable{
				{Name: "clientName", Type: VariableText, Required: true},
				{Name: "amountDue", Type: VariableCurrency, Required: true},
				{Name: "dueDate", Type: VariableDate, Required: true},
				{Name: "paymentUrl", Type: VariableText, Required: true},
			},
			Triggers: []Trigger{
				{Event: EventPaymentDue, Conditions: map[string]string{"status": "unpaid"}, Active: true},
			},
			Rules: []PersonalizationRule{
				{Condition: GreaterThan("amountDue", 1000), Variation: VariationInstallmentPlan, Priority: 1},
			},
		},
		{
			Id:          "deadline_reminder",
			Description: "Warns about an approaching filing deadline",
			Category:    CategoryDeadlines,
			Usage:       UsageAll,
			Active:      true,
			Subject:     "{{daysRemaining}} days left to file your {{taxYear}} return",
			Body: "Hi {{clientName}},\n\n" +
				"The filing deadline is {{deadlineDate}}, {{daysRemaining}} days from now. " +
				"Please send any outstanding documents so we can file on time.",
			Variables: []Variable{
				{Name: "clientName", Type: VariableText, Required: true},
				{Name: "deadlineDate", Type: VariableDate, Required: true},
				{Name: "daysRemaining", Type: VariableNumber, Required: true},
				{Name: "taxYear", Type: VariableNumber, Required: true},
			},
			Triggers: []Trigger{
				{Event: EventDeadlineApproaching, Conditions: map[string]string{"daysBefore": "7"}, Active: true},
			},
			Rules: []PersonalizationRule{
				{Condition: LessThan("daysRemaining", 3), Variation: VariationDeadlineUrgency, Priority: 1},
			},
		},
	}
}
