package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ErrorMessage is a translation key, optionally carrying species suggestions.
// It marshals to a bare string unless suggestions are present.
type ErrorMessage struct {
	Key             string
	PossibleMatches []string
}

// Message builds a plain translation-key error.
func Message(key string) ErrorMessage {
	return ErrorMessage{Key: key}
}

// Suggestion builds an error that lists possible species matches.
func Suggestion(key string, matches []string) ErrorMessage {
	return ErrorMessage{Key: key, PossibleMatches: matches}
}

type suggestionWire struct {
	Translation     string   `json:"translation"`
	PossibleMatches []string `json:"possibleMatches"`
}

func (m ErrorMessage) MarshalJSON() ([]byte, error) {
	if m.PossibleMatches == nil {
		return json.Marshal(m.Key)
	}
	return json.Marshal(suggestionWire{Translation: m.Key, PossibleMatches: m.PossibleMatches})
}

func (m *ErrorMessage) UnmarshalJSON(data []byte) error {
	var key string
	if err := json.Unmarshal(data, &key); err == nil {
		*m = ErrorMessage{Key: key}
		return nil
	}
	var wire suggestionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("invalid error message: %w", err)
	}
	matches := wire.PossibleMatches
	if matches == nil {
		matches = []string{}
	}
	*m = ErrorMessage{Key: wire.Translation, PossibleMatches: matches}
	return nil
}

// Errors maps wire error keys to messages.
type Errors map[string]ErrorMessage

// Add records key unless an earlier check already failed for it.
func (e Errors) Add(key string, msg ErrorMessage) {
	if _, exists := e[key]; !exists {
		e[key] = msg
	}
}

// Merge copies other into e.
func (e Errors) Merge(other Errors) {
	for k, v := range other {
		e[k] = v
	}
}

// HasSection reports whether any key belongs to the given section prefix.
func (e Errors) HasSection(section string) bool {
	for k := range e {
		if s, _, _, _ := ParseErrorKey(k); s == section {
			return true
		}
	}
	return false
}

// HasIndex reports whether any key addresses entry index of section.
func (e Errors) HasIndex(section string, index int) bool {
	for k := range e {
		s, i, _, indexed := ParseErrorKey(k)
		if indexed && s == section && i == index {
			return true
		}
	}
	return false
}

// ErrorKey builds the singleton form "{section}-{field}".
func ErrorKey(section, field string) string {
	return section + "-" + field
}

// IndexedErrorKey builds the array form "{section}-{index}-{field}".
func IndexedErrorKey(section string, index int, field string) string {
	return section + "-" + strconv.Itoa(index) + "-" + field
}

// ParseErrorKey splits a wire error key into its parts.
func ParseErrorKey(key string) (section string, index int, field string, indexed bool) {
	parts := strings.SplitN(key, "-", 3)
	switch len(parts) {
	case 1:
		return parts[0], 0, "", false
	case 2:
		return parts[0], 0, parts[1], false
	}
	if i, err := strconv.Atoi(parts[1]); err == nil {
		return parts[0], i, parts[2], true
	}
	return parts[0], 0, parts[1] + "-" + parts[2], false
}

// StepState is embedded in every front-end shape: the errors of the last
// failed step and the URL they belong to.
type StepState struct {
	Errors    Errors `json:"errors,omitempty"`
	ErrorsURL string `json:"errorsUrl,omitempty"`
}

// Clear removes any recorded errors.
func (s *StepState) Clear() {
	s.Errors = nil
	s.ErrorsURL = ""
}
