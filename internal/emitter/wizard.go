package emitter

import (
	"fmt"
	"strings"
)

const wizardMarker = "//-------- <<< Use Configuration Wizard in Context Menu >>> -----------------\n\n"

// textWriter accumulates generated C text. Every line is right trimmed so
// padded columns never leave trailing blanks.
type textWriter struct {
	sb strings.Builder
}

func (w *textWriter) line(format string, args ...interface{}) {
	s := format
	if len(args) > 0 {
		s = fmt.Sprintf(format, args...)
	}
	w.sb.WriteString(strings.TrimRight(s, " \t"))
	w.sb.WriteByte('\n')
}

func (w *textWriter) raw(s string) { w.sb.WriteString(s) }

func (w *textWriter) blank() { w.sb.WriteByte('\n') }

func (w *textWriter) comment(format string, args ...interface{}) {
	w.line("// "+format, args...)
}

func (w *textWriter) String() string { return w.sb.String() }

// macroGuard turns a file name into an include guard, PinMapping-MK20D5.h
// becoming PINMAPPING_MK20D5_H_.
func macroGuard(fileName string) string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_")
	return strings.ToUpper(r.Replace(fileName)) + "_"
}

func (w *textWriter) headerPreamble(fileName, version, brief string) {
	guard := macroGuard(fileName)
	w.line("/**")
	w.line(" * @file      %s", fileName)
	w.line(" * @version   %s", version)
	w.line(" * @brief     %s", brief)
	w.line(" */")
	w.blank()
	w.line("#ifndef %s", guard)
	w.line("#define %s", guard)
	w.blank()
}

func (w *textWriter) headerPostamble(fileName string) {
	w.blank()
	w.line("#endif /* %s */", macroGuard(fileName))
}

func (w *textWriter) sourcePreamble(fileName, brief string) {
	w.line(" /**")
	w.line("  * @file     %s", fileName)
	w.line("  *")
	w.line("  * @brief   %s", brief)
	w.line("  */")
	w.blank()
}

func (w *textWriter) include(name string) {
	w.line("#include \"%s\"", name)
}

func (w *textWriter) wizardMarker() { w.raw(wizardMarker) }

func (w *textWriter) sectionOpen(title string) {
	w.line("// <h> %s", title)
	w.blank()
}

func (w *textWriter) sectionClose() {
	w.line("// </h>")
	w.blank()
}

// option writes a selection header. offset selects which number in the
// following #define the option edits.
func (w *textWriter) option(offset int, title string, constant bool, hint string) {
	off := ""
	if offset > 0 {
		off = fmt.Sprint(offset)
	}
	mark := ""
	if constant {
		mark = " <constant>"
	}
	w.line("//   <o%s> %s%s", off, title, mark)
	w.line("//   <i> %s", hint)
}

func (w *textWriter) choice(value int, description string) {
	w.line("//     <%d=> %s", value, description)
}

func (w *textWriter) defaultChoice(value int) {
	w.line("//     <%d=> Default", value)
}

func (w *textWriter) define(name, value string) {
	w.line("#define %-20s %s", name, value)
}

func (w *textWriter) defineDoc(name, value, doc string) {
	w.line("#define %-26s %-5s //!< %s", name, value, doc)
}

func (w *textWriter) groupOpen(name, title, brief string) {
	w.line("/**")
	w.line("* @addtogroup %s %s", name, title)
	w.line("* @brief %s", brief)
	w.line("* @{")
	w.line("*/")
}

func (w *textWriter) groupClose() {
	w.line("/**")
	w.line(" * @}")
	w.line(" */")
}

// macroDoc writes a documented function-like macro.
func (w *textWriter) macroDoc(brief, param, name, value string) {
	w.line("/**")
	w.line(" * @brief %s", brief)
	if param != "" {
		w.line(" *")
		w.line(" * @param %s", param)
	}
	w.line(" */")
	w.line("#define %-24s %s", name, value)
	w.blank()
}
