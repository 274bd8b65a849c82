package services

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer scrubs client-supplied text before persistence. Plain fields lose
// all markup; the article body keeps the usual user-generated-content subset.
type Sanitizer struct {
	strict *bluemonday.Policy
	ugc    *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		strict: bluemonday.StrictPolicy(),
		ugc:    bluemonday.UGCPolicy(),
	}
}

func (s *Sanitizer) Plain(v string) string {
	v = strings.ReplaceAll(v, "\x00", "")
	return strings.TrimSpace(s.strict.Sanitize(v))
}

func (s *Sanitizer) Rich(v string) string {
	v = strings.ReplaceAll(v, "\x00", "")
	return strings.TrimSpace(s.ugc.Sanitize(v))
}

func (s *Sanitizer) PlainAll(vs []string) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if cleaned := s.Plain(v); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}
