package services

import (
	"fmt"
	"strings"

	"gastos/internal/core"
	"gastos/internal/intent"
)

// InvalidPeriodMessage is shown when /reporte receives an unknown keyword.
const InvalidPeriodMessage = "Parámetro inválido. Usa: dia, semana, 15dias o mes"

// UsageMessage answers /start and /ayuda.
const UsageMessage = `Envíame un gasto o ingreso en texto libre, por ejemplo:
  "Gasté 20 en Uber"
  "Me pagaron el sueldo de 1500"

Para ver un resumen: /reporte [dia|semana|15dias|mes]`

// Ack renders the confirmation for a recorded entry.
func (r Receipt) Ack() string {
	switch {
	case r.Income != nil:
		return fmt.Sprintf("💰 Ingreso registrado: %s - $%s",
			r.Income.Description, core.FormatAmount(r.Income.Amount))
	case r.Expense != nil:
		return fmt.Sprintf("💸 Gasto registrado: %s - $%s (%s)",
			r.Expense.Concept, core.FormatAmount(r.Expense.Amount), r.Expense.Category)
	default:
		return ""
	}
}

// RecordErrorMessage words a Record failure for the chat.
func RecordErrorMessage(in intent.Intent, err error) string {
	what := "gasto"
	if in == intent.Income {
		what = "ingreso"
	}
	return fmt.Sprintf("❌ Error al registrar %s:\n%v", what, err)
}

// ReportErrorMessage words a report failure for the chat.
func ReportErrorMessage(err error) string {
	if core.KindOf(err) == core.KindInvalidArgument {
		return InvalidPeriodMessage
	}
	return fmt.Sprintf("❌ Error al generar el reporte:\n%v", err)
}

// RenderSummary produces the report text: entry lines, per-category block
// and the three totals.
func RenderSummary(s core.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Resumen de %s:\n\n", s.Period)

	if len(s.Expenses) == 0 {
		b.WriteString("No hay gastos registrados.\n")
	} else {
		b.WriteString("Gastos:\n")
		for _, e := range s.Expenses {
			fmt.Fprintf(&b, "%s - %s ($%s) [%s]\n",
				e.Date, e.Concept, core.FormatAmount(e.Amount), e.Category)
		}
		b.WriteString("\nPor categoría:\n")
		for _, c := range s.ByCategory {
			fmt.Fprintf(&b, "%s: $%s\n", c.Name, core.FormatAmount(c.Amount))
		}
	}

	fmt.Fprintf(&b, "\n💰 Total gastos: $%s\n", core.FormatAmount(s.TotalExpense))
	fmt.Fprintf(&b, "💵 Total ingresos: $%s\n", core.FormatAmount(s.TotalIncome))
	fmt.Fprintf(&b, "💸 Dinero disponible: $%s", core.FormatAmount(s.Available))
	return b.String()
}
