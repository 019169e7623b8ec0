package mutator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordText(t *testing.T) {
	text := keywordText(KeywordInput{
		Label:        "A&B - Café da manhã",
		DepartmentID: "A&B",
		Description:  "Buffet matinal",
		Aliases:      []string{"breakfast", "desjejum"},
		Examples:     []string{"café frio", "pouca fruta"},
	})

	parts := strings.Split(text, " | ")
	assert.Equal(t, "A&B - Café da manhã", parts[0])
	assert.Contains(t, parts, "breakfast")
	assert.Contains(t, parts, "comida", "department vocabulary")
	assert.Contains(t, parts, "cafe da manha", "accent-free variant")
	assert.Contains(t, parts, "Buffet matinal")
	assert.Contains(t, parts, "breakfast desjejum")
	assert.Equal(t, "café frio. pouca fruta", parts[len(parts)-1])
}

func TestKeywordText_SkipsEmptyParts(t *testing.T) {
	text := keywordText(KeywordInput{Label: "Piscina", DepartmentID: "Lazer"})
	assert.NotContains(t, text, "|  |")
	assert.False(t, strings.HasSuffix(text, " | "))
	assert.Contains(t, text, "pool")
	assert.Contains(t, text, "Lazer")
}

func TestProblemText(t *testing.T) {
	text := problemText(ProblemInput{
		Label:                 "Demora no Atendimento",
		ApplicableDepartments: []string{"A&B", "Recepcao"},
	})

	parts := strings.Split(text, " | ")
	assert.Equal(t, "Demora no Atendimento", parts[0])
	assert.Contains(t, parts, "lentidão")
	assert.Contains(t, parts, "demora")
	assert.Contains(t, parts, "insatisfeito")
	assert.Contains(t, parts, "demora no atendimento não funciona")
	assert.Contains(t, parts, "A&B Recepcao")
}

func TestVariations(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Wi-Fi", []string{"wi-fi", "wi fi", "wifi"}},
		{"Manhã", []string{"manhã", "manha", "manhãs"}},
		{"Toalhas", []string{"toalhas", "toalha"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, variations(tt.in))
		})
	}
}
