package validator

import (
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"

	"github.com/usbdm-community/pinmux-tools/internal/parser"
)

// ValidateRow checks the arity and cell shapes of a directive row against
// the schema. Failures are reported as malformed_row and false is returned.
func (v *Validator) ValidateRow(row parser.Row) bool {
	rec := row.Raw()
	def, ok := v.Schema.Directive(rec.Tag())
	if !ok {
		return true
	}

	data := v.Schema.Context.Encode(map[string]interface{}{"args": rec.Args()})
	res := def.Unify(data)
	if err := res.Validate(cue.Concrete(true)); err != nil {
		v.reportCUEError(err, rec)
		return false
	}
	return true
}

func (v *Validator) reportCUEError(err error, rec *parser.Record) {
	var msgs []string
	for _, e := range errors.Errors(err) {
		msgs = append(msgs, e.Error())
	}
	v.Errorf(CodeMalformedRow, rec.Position, "Malformed %s row %q: %s", rec.Tag(), rec.Text(), strings.Join(msgs, "; "))
}
