package mutator

import (
	"strings"

	"github.com/hejijunhao/taxon/internal/textnorm"
)

// The enrichment tables feed extra vocabulary into a new entity's
// embedding text so that short labels land near the words guests use.

type synonymSet struct {
	term     string
	synonyms []string
}

var aspectSynonyms = []synonymSet{
	{"serviço", []string{"atendimento", "service", "staff", "equipe"}},
	{"limpeza", []string{"higiene", "arrumação", "cleaning", "housekeeping"}},
	{"café da manhã", []string{"breakfast", "café", "manhã", "desjejum"}},
	{"jantar", []string{"dinner", "janta", "refeição noturna"}},
	{"almoço", []string{"lunch", "refeição", "meio-dia"}},
	{"quarto", []string{"acomodação", "suite", "apartamento", "room"}},
	{"banheiro", []string{"sanitário", "toalete", "lavabo", "bathroom"}},
	{"wi-fi", []string{"wifi", "internet", "conexão", "wireless", "rede"}},
	{"tv", []string{"televisão", "televisor", "smart tv"}},
	{"piscina", []string{"pool", "natação", "área aquática"}},
	{"academia", []string{"gym", "fitness", "musculação"}},
	{"transfer", []string{"transporte", "traslado", "shuttle"}},
	{"localização", []string{"location", "lugar", "posição", "situado"}},
	{"custo-benefício", []string{"preço", "valor", "price", "cost"}},
	{"vista", []string{"view", "panorama", "paisagem", "visual"}},
	{"experiência", []string{"estadia", "hospedagem", "stay", "vivência"}},
	{"check-in", []string{"entrada", "chegada", "registro"}},
	{"check-out", []string{"saída", "partida", "checkout"}},
	{"estacionamento", []string{"garagem", "parking", "vaga"}},
	{"ar-condicionado", []string{"ar", "climatização", "ac", "refrigeração"}},
	{"elevador", []string{"lift", "ascensor"}},
	{"gastronomia", []string{"culinária", "comida", "cozinha", "food"}},
	{"room service", []string{"serviço de quarto", "quarto service"}},
	{"all inclusive", []string{"tudo incluído", "pensão completa"}},
	{"isolamento acustico", []string{"barulho", "ruído", "silêncio", "insonorização"}},
	{"atendimento", []string{"service", "staff", "equipe", "funcionários"}},
	{"variedade", []string{"diversidade", "opções", "escolhas"}},
	{"estrutura", []string{"instalações", "infraestrutura", "facilities"}},
}

var departmentTerms = map[string][]string{
	"A&B":        {"comida", "bebida", "restaurante", "garçom", "refeição", "prato", "menu"},
	"Governanca": {"limpo", "sujo", "arrumado", "camareira", "higiene"},
	"Manutencao": {"quebrado", "conserto", "reparo", "não funciona", "defeito"},
	"Recepcao":   {"recepcionista", "lobby", "front desk", "atendimento"},
	"TI":         {"tecnologia", "internet", "conexão", "funciona", "sinal"},
	"Lazer":      {"diversão", "atividade", "entretenimento", "recreação"},
	"Produto":    {"hotel", "qualidade", "oferece", "disponível"},
	"Operacoes":  {"funcionário", "staff", "equipe", "atendimento", "serviço"},
	"EG":         {"experiência", "hóspede", "personalizado", "especial"},
}

var problemSynonyms = []synonymSet{
	{"demora", []string{"lentidão", "delay", "espera", "demorado"}},
	{"falta", []string{"faltou", "não tem", "sem", "ausência"}},
	{"limpeza", []string{"higiene", "arrumação", "sujeira"}},
	{"quebrado", []string{"não funciona", "defeito", "problema", "estragado"}},
	{"atendimento", []string{"serviço", "staff", "funcionário"}},
	{"caro", []string{"preço alto", "excessivo", "custoso"}},
	{"barulho", []string{"ruído", "som", "barulhento", "ruidoso"}},
	{"qualidade", []string{"padrão", "nível", "estado"}},
}

var negativeWords = []string{
	"demora", "lento", "demorado", "espera",
	"falta", "faltou", "não tem", "sem",
	"sujo", "suja", "imundo", "nojento",
	"quebrado", "não funciona", "defeito", "problema",
	"ruim", "péssimo", "horrível", "terrível",
	"caro", "alto", "excessivo",
	"barulho", "barulhento", "ruidoso",
	"mal", "erro", "errado", "incorreto",
}

// keywordText builds the embedding text for a keyword: the enriched label
// followed by description, department, aliases and examples.
func keywordText(in KeywordInput) string {
	return joinParts(
		enrichKeywordLabel(in.Label),
		in.Description,
		in.DepartmentID,
		strings.Join(in.Aliases, " "),
		strings.Join(in.Examples, ". "),
	)
}

// problemText builds the embedding text for a problem.
func problemText(in ProblemInput) string {
	return joinParts(
		enrichProblemLabel(in.Label),
		in.Description,
		strings.Join(in.ApplicableDepartments, " "),
		strings.Join(in.Aliases, " "),
		strings.Join(in.Examples, ". "),
	)
}

func enrichKeywordLabel(label string) string {
	department, aspect, ok := strings.Cut(label, " - ")
	if !ok {
		aspect = label
	}
	parts := []string{label, department, aspect}
	parts = append(parts, limit(matchSynonyms(aspectSynonyms, strings.ToLower(aspect), true), 5)...)
	parts = append(parts, relatedTerms(department, aspect)...)
	parts = append(parts, variations(aspect)...)
	return joinParts(parts...)
}

func enrichProblemLabel(label string) string {
	lower := strings.ToLower(label)
	parts := []string{label}
	parts = append(parts, limit(matchSynonyms(problemSynonyms, lower, false), 5)...)

	var indicators []string
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			indicators = append(indicators, w)
		}
	}
	indicators = append(indicators, "problema", "insatisfeito", "reclamação")
	parts = append(parts, limit(dedupe(indicators), 8)...)

	parts = append(parts,
		lower+" problema",
		"falta de "+lower,
		lower+" ruim",
		lower+" não funciona",
	)
	return joinParts(parts...)
}

// matchSynonyms collects the synonyms of every term contained in text.
// With echo set, an unmatched text contributes itself.
func matchSynonyms(table []synonymSet, text string, echo bool) []string {
	var out []string
	for _, s := range table {
		if strings.Contains(text, s.term) {
			out = append(out, s.synonyms...)
		}
	}
	if len(out) == 0 && echo {
		out = append(out, text)
	}
	return dedupe(out)
}

func relatedTerms(department, aspect string) []string {
	var out []string
	out = append(out, departmentTerms[textnorm.StripAccents(department)]...)
	out = append(out, strings.ToLower(aspect))
	return dedupe(out)
}

// variations yields at most three spelling variants: accent-free,
// de-hyphenated and naive singular/plural.
func variations(term string) []string {
	lower := strings.ToLower(term)
	out := []string{lower, textnorm.StripAccents(lower)}
	if strings.Contains(lower, "-") {
		out = append(out, strings.ReplaceAll(lower, "-", " "), strings.ReplaceAll(lower, "-", ""))
	}
	if strings.HasSuffix(lower, "s") && len(lower) > 3 {
		out = append(out, strings.TrimSuffix(lower, "s"))
	} else {
		out = append(out, lower+"s")
	}
	return limit(dedupe(out), 3)
}

func joinParts(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " | ")
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func limit(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
