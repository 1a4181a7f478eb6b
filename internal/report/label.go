package report

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nao1215/cheatscan/internal/model"
)

// Label returns the survivor label in English.
func Label(result *model.Result) string {
	return LabelFor(language.English, result)
}

// LabelFor returns the survivor label with counts grouped for tag,
// for example "Too many matches to display (25,165,824)".
func LabelFor(tag language.Tag, result *model.Result) string {
	p := message.NewPrinter(tag)
	if result.Capped() {
		return p.Sprintf("Too many matches to display (%d)", result.Survivors)
	}
	return p.Sprintf("%d Match(es)", result.Survivors)
}
