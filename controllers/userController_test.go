package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validRegisterPayload() registerPayload {
	return registerPayload{
		Username:        "marie",
		Email:           "marie@example.com",
		Password:        "s3cret-password",
		PasswordConfirm: "s3cret-password",
		FirstName:       "Marie",
		LastName:        "Curie",
	}
}

func TestRegisterPayloadValidate(t *testing.T) {
	assert.NoError(t, validRegisterPayload().validate())
}

func TestRegisterPayloadValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*registerPayload)
	}{
		{"missing username", func(p *registerPayload) { p.Username = "" }},
		{"missing email", func(p *registerPayload) { p.Email = "" }},
		{"invalid email", func(p *registerPayload) { p.Email = "not-an-email" }},
		{"short password", func(p *registerPayload) { p.Password = "short"; p.PasswordConfirm = "short" }},
		{"mismatched confirmation", func(p *registerPayload) { p.PasswordConfirm = "different-password" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validRegisterPayload()
			tt.mutate(&p)
			assert.Error(t, p.validate())
		})
	}
}
