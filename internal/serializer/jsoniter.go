package serializer

import (
	jsoniter "github.com/json-iterator/go"
)

// JSON is used for every machine readable output of the CLI.
//
// Map keys are sorted so that the output of `ssmctl run -o json` is stable
// between two runs on the same fleet.
var JSON = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()
