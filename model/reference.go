package model

// ReferenceResult is the answer of a reference-data lookup. A lookup that
// rejects the value sets IsError; it is not a Go error.
type ReferenceResult struct {
	IsError    bool     `json:"isError"`
	Error      string   `json:"error,omitempty"`
	ResultList []string `json:"resultList,omitempty"`
}
