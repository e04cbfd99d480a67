package pkg

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/ansel1/merry"
	"github.com/powerman/structlog"
)

// PrintMerryStacktrace logs the stack captured in e, one frame per line,
// innermost first. Nothing is logged if e has no stack.
func PrintMerryStacktrace(log *structlog.Logger, e error) {
	for i, fp := range merry.Stack(e) {
		fnc := runtime.FuncForPC(fp)
		if fnc == nil {
			continue
		}
		f, l := fnc.FileLine(fp)
		ident := " "
		if i > 0 {
			ident = "\t"
		}
		log.PrintErr(fmt.Sprintf("%s%s:%d %s", ident, f, l, filepath.Base(fnc.Name())))
	}
}
