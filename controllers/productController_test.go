package controllers

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validProductPayload() productPayload {
	return productPayload{
		Name:        "Baroque pearl ring",
		Description: "Freshwater baroque pearl on a slim band",
		Price:       decimal.RequireFromString("89.90"),
		Category:    "rings",
		Material:    "gold_plated",
		Stock:       5,
		Images: []productImagePayload{
			{ImageURL: "https://cdn.example.com/rings/baroque-1.jpg", Order: 0},
		},
	}
}

func TestProductPayloadValidate(t *testing.T) {
	assert.NoError(t, validProductPayload().validate())
}

func TestProductPayloadValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*productPayload)
	}{
		{"missing name", func(p *productPayload) { p.Name = "" }},
		{"missing description", func(p *productPayload) { p.Description = "" }},
		{"zero price", func(p *productPayload) { p.Price = decimal.Zero }},
		{"negative price", func(p *productPayload) { p.Price = decimal.NewFromInt(-10) }},
		{"unknown category", func(p *productPayload) { p.Category = "watches" }},
		{"unknown material", func(p *productPayload) { p.Material = "titanium" }},
		{"negative stock", func(p *productPayload) { p.Stock = -1 }},
		{"image without url", func(p *productPayload) { p.Images[0].ImageURL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProductPayload()
			tt.mutate(&p)
			assert.Error(t, p.validate())
		})
	}
}
