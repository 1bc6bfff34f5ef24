package validator

import (
	"strings"
	"unicode/utf8"
)

const MaxDesignNameLength = 60

func DesignName(name string) bool {
	name = strings.TrimSpace(name)
	return utf8.RuneCountInString(name) >= 1 && utf8.RuneCountInString(name) <= MaxDesignNameLength
}
