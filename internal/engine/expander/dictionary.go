package expander

var hotelDictionary = []Entry{
	// A&B
	{"comida", []string{"refeição", "prato", "alimento", "gastronomia", "food"}},
	{"café da manhã", []string{"breakfast", "café", "manhã", "desjejum"}},
	{"almoço", []string{"lunch", "meio-dia", "refeição"}},
	{"jantar", []string{"janta", "dinner", "refeição noturna"}},
	{"garçom", []string{"garçonete", "atendente", "funcionário do restaurante", "staff"}},
	{"restaurante", []string{"comida", "gastronomia", "refeição", "A&B"}},
	{"room service", []string{"serviço de quarto", "comida no quarto"}},

	// Governança
	{"limpeza", []string{"higiene", "arrumação", "cleaning", "housekeeping"}},
	{"sujo", []string{"sujeira", "falta de limpeza", "não limpo", "imundo"}},
	{"limpo", []string{"limpeza", "higiene", "arrumado", "impecável"}},
	{"quarto", []string{"acomodação", "suite", "apartamento", "room"}},
	{"banheiro", []string{"sanitário", "toalete", "lavabo", "bathroom", "box", "chuveiro"}},
	{"toalha", []string{"enxoval", "roupa de cama", "lençol"}},
	{"amenities", []string{"produtos de banho", "shampoo", "sabonete"}},

	// Manutenção
	{"ar condicionado", []string{"ar", "climatização", "ac", "refrigeração"}},
	{"quebrado", []string{"não funciona", "defeito", "problema", "estragado"}},
	{"conserto", []string{"reparo", "manutenção", "arrumação"}},
	{"elevador", []string{"lift", "ascensor"}},

	// Recepção
	{"recepção", []string{"recepcionista", "front desk", "lobby", "atendimento"}},
	{"check-in", []string{"entrada", "chegada", "registro"}},
	{"check-out", []string{"saída", "partida", "checkout"}},
	{"estacionamento", []string{"garagem", "parking", "vaga", "carro"}},

	// TI
	{"wifi", []string{"wi-fi", "internet", "conexão", "wireless", "rede"}},
	{"internet", []string{"wifi", "wi-fi", "conexão", "rede"}},
	{"tv", []string{"televisão", "televisor", "smart tv", "canais"}},

	// Lazer
	{"piscina", []string{"pool", "natação", "área aquática"}},
	{"academia", []string{"gym", "fitness", "musculação", "treino"}},
	{"spa", []string{"massagem", "tratamento", "relaxamento"}},

	// Produto
	{"transfer", []string{"transporte", "traslado", "shuttle", "aeroporto"}},
	{"localização", []string{"localizado", "location", "perto", "próximo", "situado"}},
	{"custo benefício", []string{"preço", "valor", "cost", "barato", "caro"}},
	{"vista", []string{"view", "panorama", "paisagem", "visual"}},
	{"experiência", []string{"estadia", "hospedagem", "stay", "vivência"}},
	{"all inclusive", []string{"tudo incluído", "pensão completa", "incluso"}},
	{"barulho", []string{"ruído", "isolamento acústico", "som", "barulhento"}},

	// Operações
	{"atendimento", []string{"serviço", "service", "staff", "equipe", "funcionários"}},
	{"funcionário", []string{"staff", "equipe", "atendente", "colaborador"}},
	{"cartão", []string{"chave", "acesso", "keycard"}},

	// Sentiment
	{"muito bom", []string{"excelente", "ótimo", "maravilhoso", "perfeito"}},
	{"excelente", []string{"ótimo", "maravilhoso", "perfeito", "incrível"}},
	{"adorei", []string{"amei", "gostei muito", "excelente", "maravilhoso"}},
	{"ruim", []string{"péssimo", "horrível", "terrível", "muito ruim"}},
	{"péssimo", []string{"horrível", "ruim", "terrível", "muito ruim"}},
	{"deixa a desejar", []string{"ruim", "insatisfatório", "poderia melhorar"}},
}
