package communication

import (
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestRenderer(t *testing.T) {
	suite.Run(t, new(rendererTestSuite))
}

type rendererTestSuite struct {
	suite.Suite

	store    *TemplateStore
	renderer *Renderer
}

func (suite *rendererTestSuite) SetupTest() {
	store, err := NewTemplateStore(DefaultTemplates()...)
	require.NoError(suite.T(), err)

	suite.store = store
	suite.renderer = NewRenderer(store)
}

func sampleValue(kind VariableType) Value {
	switch kind {
	case VariableDate:
		return Date(time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC))
	case VariableNumber:
		return Number(2024)
	case VariableCurrency:
		return Currency(1250)
	case VariableList:
		return List("W-2", "1099-INT")
	default:
		return Text("sample")
	}
}

func fullVariables(tpl Template) Variables {
	vars := Variables{}
	for _, v := range tpl.Variables {
		vars[v.Name] = sampleValue(v.Type)
	}

	return vars
}

func (suite *rendererTestSuite) TestAllDeclaredVariablesAreSubstituted() {
	for _, tpl := range suite.store.All() {
		out, err := suite.renderer.Render(tpl.Id, fullVariables(tpl), nil)
		if !assert.NoError(suite.T(), err, tpl.Id) {
			continue
		}

		for _, v := range tpl.Variables {
			placeholder := "{{" + v.Name + "}}"
			assert.NotContains(suite.T(), out.Subject, placeholder, tpl.Id)
			assert.NotContains(suite.T(), out.Body, placeholder, tpl.Id)
		}
	}
}

func (suite *rendererTestSuite) TestMissingVariableLeavesPlaceholder() {
	for _, tpl := range suite.store.All() {
		for _, missing := range tpl.Variables {
			vars := fullVariables(tpl)
			delete(vars, missing.Name)

			out, err := suite.renderer.Render(tpl.Id, vars, nil)
			require.NoError(suite.T(), err)

			placeholder := "{{" + missing.Name + "}}"
			if strings.Contains(tpl.Subject, placeholder) {
				assert.Contains(suite.T(), out.Subject, placeholder, tpl.Id)
			}
			if strings.Contains(tpl.Body, placeholder) {
				assert.Contains(suite.T(), out.Body, placeholder, tpl.Id)
			}
		}
	}
}

func (suite *rendererTestSuite) TestWelcomeNewClient() {
	vars := Variables{
		"clientName":      Text("Maria Lopez"),
		"preparerName":    Text("Sam Carter"),
		"preparerEmail":   Text("sam@example.com"),
		"preparerPhone":   Text("(555) 010-2040"),
		"portalUrl":       Text("https://portal.example.com"),
		"taxYear":         Number(2024),
		"appointmentDate": Date(time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC)),
	}

	out, err := suite.renderer.Render("welcome_new_client", vars, nil)
	require.NoError(suite.T(), err)

	assert.NotContains(suite.T(), out.Subject, "{{")
	assert.NotContains(suite.T(), out.Subject, "}}")
	assert.Contains(suite.T(), out.Body, "Maria Lopez")
	assert.Contains(suite.T(), out.Body, "(555) 010-2040")
	assert.Contains(suite.T(), out.Body, "February 3, 2025")
	assert.Contains(suite.T(), out.Body, "2024 return")
}

func (suite *rendererTestSuite) TestLargeRefundCelebration() {
	vars := Variables{
		"clientName":   Text("Maria"),
		"taxYear":      Number(2024),
		"filingDate":   Date(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)),
		"refundAmount": Currency(7500),
		"preparerName": Text("Sam"),
	}

	out, err := suite.renderer.Render("return_completed", vars, &ClientProfile{})
	require.NoError(suite.T(), err)

	assert.Contains(suite.T(), out.Body, "Fantastic news!")
	assert.NotContains(suite.T(), out.Body, "Excellent news!")
	assert.Contains(suite.T(), out.Body, "$7500")
}

func (suite *rendererTestSuite) TestSmallRefundKeepsOriginalLeadIn() {
	vars := Variables{"refundAmount": Currency(800)}

	out, err := suite.renderer.Render("return_completed", vars, &ClientProfile{})
	require.NoError(suite.T(), err)

	assert.Contains(suite.T(), out.Body, "Excellent news!")
}

func (suite *rendererTestSuite) TestNoProfileSkipsPersonalization() {
	vars := Variables{"refundAmount": Currency(7500)}

	out, err := suite.renderer.Render("return_completed", vars, nil)
	require.NoError(suite.T(), err)

	assert.Contains(suite.T(), out.Body, "Excellent news!")
}

func (suite *rendererTestSuite) TestReturningClientFromProfile() {
	out, err := suite.renderer.Render("welcome_new_client", Variables{"clientName": Text("Ann")}, &ClientProfile{ReturningClient: true})
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "Welcome back to our practice, Ann!", out.Subject)
	assert.Contains(suite.T(), out.Body, "Welcome back to our practice!")
}

func (suite *rendererTestSuite) TestKeysWithPunctuation() {
	store, err := NewTemplateStore(Template{
		Id:      "punctuated",
		Subject: "Hi {{client-name}}",
		Body:    "Your {{return.year}} return, {{ spaced key }}. {{missing-key}}",
		Variables: []Variable{
			{Name: "client-name", Type: VariableText, Required: true},
			{Name: "return.year", Type: VariableNumber, Required: true},
			{Name: " spaced key ", Type: VariableText},
		},
	})
	require.NoError(suite.T(), err)

	vars := Variables{
		"client-name":  Text("Ann"),
		"return.year":  Number(2024),
		" spaced key ": Text("thanks"),
	}

	out, err := NewRenderer(store).Render("punctuated", vars, nil)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "Hi Ann", out.Subject)
	assert.Equal(suite.T(), "Your 2024 return, thanks. {{missing-key}}", out.Body)
}

func (suite *rendererTestSuite) TestUnknownTemplate() {
	_, err := suite.renderer.Render("does_not_exist", Variables{}, nil)

	assert.Error(suite.T(), err)
	assert.Equal(suite.T(), TemplateNotFoundErr, errors.Cause(err))
}

func (suite *rendererTestSuite) TestUnknownVariationIsNoop() {
	store, err := NewTemplateStore(Template{
		Id:      "custom",
		Subject: "Hello {{name}}",
		Body:    "Excellent news!",
		Rules: []PersonalizationRule{
			{Condition: Present("name"), Variation: "does_not_exist", Priority: 1},
		},
	})
	require.NoError(suite.T(), err)

	out, err := NewRenderer(store).Render("custom", Variables{"name": Text("Bo")}, &ClientProfile{})
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), Rendered{Subject: "Hello Bo", Body: "Excellent news!"}, out)
}

func (suite *rendererTestSuite) TestRulesApplyInPriorityOrder() {
	rules := []PersonalizationRule{
		{Condition: Present("x"), Variation: VariationInstallmentPlan, Priority: 5},
		{Condition: Present("x"), Variation: VariationLargeRefund, Priority: 1},
	}

	in := Rendered{Subject: "s", Body: "Excellent news!"}
	out := personalize(in, rules, Variables{"x": Text("1")}, &ClientProfile{})

	assert.Equal(suite.T(), "Fantastic news!\n\n"+installmentPlanNote, out.Body)
}

func (suite *rendererTestSuite) TestNonMatchingRulesAreIdempotent() {
	tpl, err := suite.store.Get("deadline_reminder")
	require.NoError(suite.T(), err)

	vars := Variables{"daysRemaining": Number(10)}
	in := Rendered{Subject: Substitute(tpl.Subject, vars), Body: Substitute(tpl.Body, vars)}

	once := personalize(in, tpl.Rules, vars, &ClientProfile{})
	twice := personalize(once, tpl.Rules, vars, &ClientProfile{})

	assert.Equal(suite.T(), in, once)
	assert.Equal(suite.T(), once, twice)
}

func (suite *rendererTestSuite) TestVariationsDoNotStack() {
	for tag, apply := range variations {
		in := Rendered{Subject: "Welcome to x", Body: "Excellent news! Welcome to x"}

		once := apply(in)
		assert.Equal(suite.T(), once, apply(once), tag)
	}
}

func (suite *rendererTestSuite) TestDecodeVariables() {
	tpl, err := suite.store.Get("document_request")
	require.NoError(suite.T(), err)

	vars, err := DecodeVariables(tpl, map[string]interface{}{
		"clientName":   "Ann",
		"taxYear":      float64(2024),
		"documentList": []interface{}{"W-2", "1098"},
		"dueDate":      "2025-03-01",
		"extra":        "kept",
	})
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), VariableNumber, vars["taxYear"].Type())
	assert.Equal(suite.T(), "W-2, 1098", vars["documentList"].String())
	assert.Equal(suite.T(), "March 1, 2025", vars["dueDate"].String())
	assert.Equal(suite.T(), "kept", vars["extra"].String())
	assert.ElementsMatch(suite.T(), []string{"portalUrl", "preparerName"}, tpl.MissingRequired(vars))
}

func (suite *rendererTestSuite) TestDecodeVariablesRejectsMismatch() {
	tpl, err := suite.store.Get("return_completed")
	require.NoError(suite.T(), err)

	_, err = DecodeVariables(tpl, map[string]interface{}{"refundAmount": "a lot"})
	assert.Equal(suite.T(), VariableTypeErr, errors.Cause(err))

	_, err = DecodeVariables(tpl, map[string]interface{}{"filingDate": float64(3)})
	assert.Equal(suite.T(), VariableTypeErr, errors.Cause(err))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "7500", Currency(7500).String())
	assert.Equal(t, "1234.5", Number(1234.5).String())
	assert.Equal(t, "a, b", List("a", "b").String())
	assert.Equal(t, "January 2, 2006", Date(time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)).String())
}

func TestConditionMatches(t *testing.T) {
	vars := Variables{"refundAmount": Currency(5000), "status": Text("Filed")}
	profile := &ClientProfile{FilingStatus: "married_joint", YearsAsClient: 4}

	assert.False(t, GreaterThan("refundAmount", 5000).Matches(vars, profile))
	assert.True(t, GreaterThan("refundAmount", 4999.99).Matches(vars, profile))
	assert.True(t, LessThan("yearsAsClient", 5).Matches(vars, profile))
	assert.True(t, Equals("status", "filed").Matches(vars, profile))
	assert.True(t, Equals("filingStatus", "married_joint").Matches(vars, profile))
	assert.False(t, Present("unknown").Matches(vars, profile))
	assert.False(t, GreaterThan("status", 1).Matches(vars, profile))
}
