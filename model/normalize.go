package model

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/contextmesh/core"
)

// Providers do not reliably honor the response schema: the same logical value
// arrives under several field names, wrapped in markdown fences, or as bare
// prose. Normalization happens exactly once, here at the collaborator
// boundary, instead of shape-sniffing at every call site.
//
// Recognized schema:
//
//	summary:    summary | text | content | response
//	key points: key_points | keyPoints | points | highlights
//	title:      title | name | heading
//
// Anything that is not a JSON object falls back to treating the whole payload
// as the summary / title text.
var (
	summaryAliases  = []string{"summary", "text", "content", "response"}
	keyPointAliases = []string{"key_points", "keyPoints", "points", "highlights"}
	titleAliases    = []string{"title", "name", "heading"}
)

// NormalizeSummary maps a raw collaborator payload onto the SummarizeResult schema.
func NormalizeSummary(raw string) core.SummarizeResult {
	raw = stripFences(raw)
	parsed := gjson.Parse(raw)
	if !parsed.IsObject() {
		return core.SummarizeResult{Summary: raw}
	}

	res := core.SummarizeResult{}
	for _, alias := range summaryAliases {
		if v := parsed.Get(alias); v.Exists() && v.Type == gjson.String {
			res.Summary = strings.TrimSpace(v.String())
			break
		}
	}
	for _, alias := range keyPointAliases {
		v := parsed.Get(alias)
		if !v.IsArray() {
			continue
		}
		for _, item := range v.Array() {
			if p := strings.TrimSpace(item.String()); p != "" {
				res.KeyPoints = append(res.KeyPoints, p)
			}
		}
		break
	}
	if res.Summary == "" {
		res.Summary = raw
	}
	return res
}

// NormalizeTitle maps a raw collaborator payload onto the TitleResult schema.
func NormalizeTitle(raw string) core.TitleResult {
	raw = stripFences(raw)
	parsed := gjson.Parse(raw)
	if parsed.IsObject() {
		for _, alias := range titleAliases {
			if v := parsed.Get(alias); v.Exists() && v.Type == gjson.String {
				return core.TitleResult{Title: strings.TrimSpace(v.String())}
			}
		}
	}
	return core.TitleResult{Title: strings.Trim(strings.TrimSpace(raw), `"`)}
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 && !strings.HasPrefix(s, "\n") && idx < 20 {
		// drop a language tag like "json"
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "\n")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
