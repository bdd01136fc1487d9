package validation

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type signupPayload struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,pwd"`
	Limit    int    `form:"limit" validate:"gte=0,lte=50"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	Configure(v)
	return v
}

func TestToDetails_UsesJSONNames(t *testing.T) {
	err := newValidator().Struct(signupPayload{Email: "nope", Password: "12345", Limit: 80})
	d := ToDetails(err)
	assert.Equal(t, "is required", d["full_name"])
	assert.Equal(t, "must be a valid email address", d["email"])
	assert.Equal(t, "must be at least 6 characters", d["password"])
	assert.Equal(t, "must be less than or equal to 50", d["limit"])
}

func TestPasswordAlias_AcceptsSixCharacters(t *testing.T) {
	err := newValidator().Struct(signupPayload{FullName: "A", Email: "a@b.co", Password: "123456"})
	assert.NoError(t, err)
}

func TestToDetails_InvalidJSON(t *testing.T) {
	var v map[string]any
	err := json.Unmarshal([]byte("{"), &v)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
}

type onboardingPayload struct {
	Native string `json:"native_language" validate:"required,lang"`
}

func TestLanguageAlias(t *testing.T) {
	v := newValidator()
	assert.NoError(t, v.Struct(onboardingPayload{Native: "Portuguese (Brazil)"}))

	d := ToDetails(v.Struct(onboardingPayload{Native: "x"}))
	assert.Equal(t, "must be at least 2 characters", d["native_language"])

	d = ToDetails(v.Struct(onboardingPayload{Native: "<script>"}))
	assert.Equal(t, "may only contain letters, spaces and hyphens", d["native_language"])
}

func TestVar_ProjectTags(t *testing.T) {
	assert.NoError(t, Var("ana@example.com", "required,email"))
	assert.Error(t, Var("ana@", "required,email"))
	assert.Error(t, Var("", "required,email"))
	assert.NoError(t, Var("secret", "pwd"))
	assert.Error(t, Var("12345", "pwd"))
	assert.Error(t, Var("Klingon!", "lang"))
}
