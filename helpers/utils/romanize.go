package utils

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// Romanize transliterates text to lowercase ASCII with single spaces,
// e.g. "北京市朝阳区" becomes "bei jing shi chao yang qu".
func Romanize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(unidecode.Unidecode(text))), " ")
}
