package taxonomy

import "github.com/hejijunhao/taxon/internal/model"

// DefaultDepartments returns the hotel departments seeded into an empty
// store.
func DefaultDepartments() []model.Department {
	return []model.Department{
		{ID: "A&B", Label: "A&B", Description: "Alimentos & Bebidas", Active: true, Order: 1},
		{ID: "Governanca", Label: "Governança", Active: true, Order: 2},
		{ID: "Limpeza", Label: "Limpeza", Active: true, Order: 3},
		{ID: "Manutencao", Label: "Manutenção", Active: true, Order: 4},
		{ID: "Produto", Label: "Produto", Active: true, Order: 5},
		{ID: "Lazer", Label: "Lazer", Active: true, Order: 6},
		{ID: "TI", Label: "TI", Active: true, Order: 7},
		{ID: "Operacoes", Label: "Operações", Active: true, Order: 8},
		{ID: "Qualidade", Label: "Qualidade", Active: true, Order: 9},
		{ID: "Recepcao", Label: "Recepção", Active: true, Order: 10},
		{ID: "EG", Label: "EG", Active: true, Order: 11},
		{ID: "Comercial", Label: "Comercial", Active: true, Order: 12},
		{ID: "Academia", Label: "Academia", Active: true, Order: 13},
	}
}
