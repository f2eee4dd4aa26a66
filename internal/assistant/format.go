package assistant

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/techretail/retailbot/internal/domain"
)

// ProductList renders one line per product.
func ProductList(products []domain.Product) string {
	lines := make([]string, 0, len(products))
	for _, p := range products {
		lines = append(lines, fmt.Sprintf("📦 ID: %d - %s - $%s (Stock: %d)", p.ID, p.Name, domain.FormatMoney(p.Price), p.Stock))
	}
	return strings.Join(lines, "\n")
}

// CategoryProducts filters products down to one category.
func CategoryProducts(products []domain.Product, categoryID int64) []domain.Product {
	var out []domain.Product
	for _, p := range products {
		if p.CategoryID != nil && *p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out
}

// FAQContext renders question and answer pairs for grounding.
func FAQContext(faqs []domain.FAQ) string {
	var sb strings.Builder
	for i, f := range faqs {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "- Pregunta: %s\n  Respuesta: %s", f.Question, f.Answer)
	}
	return sb.String()
}

// FAQQuestions renders only the questions, as a bullet list.
func FAQQuestions(faqs []domain.FAQ) string {
	lines := make([]string, 0, len(faqs))
	for _, f := range faqs {
		lines = append(lines, "• "+f.Question)
	}
	return strings.Join(lines, "\n")
}

// OrdersListing renders orders numbered from 1 with their items numbered
// from 1. The numbers are what /cancelar and /quitar refer to.
func OrdersListing(orders []domain.Order) string {
	var sb strings.Builder
	for i, o := range orders {
		fmt.Fprintf(&sb, "%d. Reserva #%d - %s - Total: $%s\n", i+1, o.ID, o.Status.Label(), domain.FormatMoney(o.TotalAmount))
		for j, item := range o.Items {
			name := item.ProductName
			if name == "" {
				name = fmt.Sprintf("producto %d", item.ProductID)
			}
			fmt.Fprintf(&sb, "   %d) %d x %s ($%s)\n", j+1, item.Quantity, name, domain.FormatMoney(item.Price))
		}
	}
	return sb.String()
}

// Quote prices quantity units of a product.
func Quote(p domain.Product, quantity int) decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(quantity)))
}
