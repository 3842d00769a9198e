package extraction

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"gastos/internal/core"
)

const opParse = "parse model output"

type object map[string]json.RawMessage

// decodeObject accepts exactly one JSON object. Surrounding prose or code
// fences are not stripped: anything but a bare object is malformed.
func decodeObject(raw string) (object, error) {
	data := []byte(raw)
	if !json.Valid(data) {
		return nil, core.Errorf(core.KindMalformedResponse, opParse, "response is not valid JSON: %q", truncate(raw, 120))
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, core.Errorf(core.KindMalformedResponse, opParse, "expected a JSON object, got %q", truncate(raw, 120))
	}
	var obj object
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, &core.Error{Kind: core.KindMalformedResponse, Op: opParse, Err: err}
	}
	return obj, nil
}

// lookup returns the first non-null value among keys.
func (o object) lookup(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		v, ok := o[k]
		if ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return v, true
		}
	}
	return nil, false
}

func (o object) str(key string, aliases ...string) (string, bool, error) {
	v, ok := o.lookup(append([]string{key}, aliases...)...)
	if !ok {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", true, core.Errorf(core.KindSchemaViolation, opParse, "%q must be a string", key)
	}
	return strings.TrimSpace(s), true, nil
}

// amount accepts a JSON number or a numeric string such as "12,50".
func (o object) amount(key string) (decimal.Decimal, bool, error) {
	v, ok := o.lookup(key)
	if !ok {
		return decimal.Zero, false, nil
	}
	v = bytes.TrimSpace(v)
	if len(v) > 0 && v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return decimal.Zero, true, core.Errorf(core.KindSchemaViolation, opParse, "%q must be numeric", key)
		}
		d, err := core.ParseAmount(s)
		if err != nil {
			return decimal.Zero, true, core.Errorf(core.KindSchemaViolation, opParse, "%q must be a positive number, got %q", key, s)
		}
		return d, true, nil
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return decimal.Zero, true, core.Errorf(core.KindSchemaViolation, opParse, "%q must be numeric", key)
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, true, core.Errorf(core.KindSchemaViolation, opParse, "%q must be numeric", key)
	}
	return d, true, nil
}

type missing []string

func (m *missing) need(present bool, key string) {
	if !present {
		*m = append(*m, key)
	}
}

func (m missing) err() error {
	if len(m) == 0 {
		return nil
	}
	sort.Strings(m)
	return core.Errorf(core.KindSchemaViolation, opParse, "missing required keys: %s", strings.Join(m, ", "))
}

func parseExpense(raw string) (ExpenseFields, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return ExpenseFields{}, err
	}

	var f ExpenseFields
	var miss missing

	concept, ok, err := obj.str("concepto", "concept")
	if err != nil {
		return f, err
	}
	miss.need(ok && concept != "", "concepto")
	f.Concept = concept

	amt, ok, err := obj.amount("monto")
	if err != nil {
		return f, err
	}
	miss.need(ok, "monto")
	f.Amount = amt

	category, ok, err := obj.str("categoria")
	if err != nil {
		return f, err
	}
	miss.need(ok && category != "", "categoria")
	f.Category = category

	if err := miss.err(); err != nil {
		return f, err
	}

	date, ok, err := obj.str("fecha")
	if err != nil {
		return f, err
	}
	if ok && date != "" {
		d, err := core.ParseDate(date)
		if err != nil {
			return f, core.Errorf(core.KindSchemaViolation, opParse, "\"fecha\" must be YYYY-MM-DD, got %q", date)
		}
		f.Date = d
	}

	return f, nil
}

func parseIncome(raw string) (IncomeFields, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return IncomeFields{}, err
	}

	var f IncomeFields
	var miss missing

	amt, ok, err := obj.amount("monto")
	if err != nil {
		return f, err
	}
	miss.need(ok, "monto")
	f.Amount = amt

	desc, ok, err := obj.str("descripcion")
	if err != nil {
		return f, err
	}
	miss.need(ok && desc != "", "descripcion")
	f.Description = desc

	return f, miss.err()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
