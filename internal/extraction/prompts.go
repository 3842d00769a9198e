package extraction

import "strings"

const expenseShape = `{
  "concepto": "...",
  "monto": numero,
  "fecha": "YYYY-MM-DD",
  "categoria": "..."
}`

const incomeShape = `{
  "monto": numero,
  "descripcion": "..."
}`

// buildPrompt states the exact JSON shape, forbids any surrounding prose and
// embeds the user's text verbatim.
func buildPrompt(schema Schema, text string) string {
	shape := expenseShape
	if schema == IncomeSchema {
		shape = incomeShape
	}

	var b strings.Builder
	b.WriteString("Devuelve estrictamente este JSON, sin texto adicional:\n\n")
	b.WriteString(shape)
	b.WriteString("\n\n")
	b.WriteString("Reglas:\n")
	b.WriteString("- \"monto\" es un número positivo sin símbolo de moneda.\n")
	if schema == ExpenseSchema {
		b.WriteString("- Si el texto no menciona una fecha, omite \"fecha\".\n")
		b.WriteString("- \"categoria\" es una palabra corta en minúsculas (por ejemplo: transporte, comida, hogar).\n")
	}
	b.WriteString("- No uses bloques de código ni Markdown. La respuesta debe empezar con \"{\" y terminar con \"}\".\n\n")
	b.WriteString("Texto: ")
	b.WriteString(text)
	b.WriteString("\n")
	return b.String()
}
