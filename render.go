package communication

import (
	"regexp"

	"github.com/interactive-solutions/go-communication-hub/metrics"
)

// placeholder matches {{key}} where key is any text without braces.
var placeholder = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

type Rendered struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Renderer struct {
	templates *TemplateStore
}

func NewRenderer(templates *TemplateStore) *Renderer {
	return &Renderer{templates: templates}
}

// Render fills the template's placeholders from vars and, when a profile is
// given, applies its personalization rules. Placeholders without a variable
// are left in place.
func (r *Renderer) Render(templateId string, vars Variables, profile *ClientProfile) (Rendered, error) {
	tpl, err := r.templates.Get(templateId)
	if err != nil {
		metrics.TemplateRenders.WithLabelValues("unknown", "not_found").Inc()
		return Rendered{}, err
	}

	out := Rendered{
		Subject: Substitute(tpl.Subject, vars),
		Body:    Substitute(tpl.Body, vars),
	}

	if profile != nil && len(tpl.Rules) > 0 {
		out = personalize(out, tpl.Rules, vars, profile)
	}

	metrics.TemplateRenders.WithLabelValues(templateId, "ok").Inc()

	return out, nil
}

func Substitute(text string, vars Variables) string {
	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		name := match[2 : len(match)-2]

		if v, ok := vars[name]; ok {
			return v.String()
		}

		return match
	})
}
