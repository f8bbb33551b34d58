package generator

import (
	"strconv"
	"text/template"
)

// GetCommonFuncMap returns the template functions shared by the generated
// files. Every string that lands in Go source goes through quote, so entity
// identifiers and file names never need escaping by hand.
func GetCommonFuncMap() template.FuncMap {
	return template.FuncMap{
		"quote": strconv.Quote,
	}
}
