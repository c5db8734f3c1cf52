package gateway

import "github.com/legal-assistant/docclient/internal/result"

func normalizeSummary(resp summarizeResponse) result.Summary {
	return result.Summary{Text: resp.Summary}
}

func normalizeEntities(items []entityPayload) result.Entities {
	entities := make([]result.Entity, 0, len(items))
	for _, item := range items {
		entities = append(entities, result.Entity{Text: item.Text, Label: item.Label})
	}
	return result.Entities{Entities: entities}
}

// normalizeExtractive keeps every field the payload carried, zero included.
func normalizeExtractive(p *qaPayload) result.QA {
	if p == nil {
		return result.QA{}
	}
	return result.QA{
		Answer:      p.Answer,
		Score:       p.Score,
		StartOffset: p.Start,
		EndOffset:   p.End,
	}
}

// normalizeFreeText builds a QA answer for capabilities that produce text
// only. Score and span are always absent.
func normalizeFreeText(answer *string) result.QA {
	return result.QA{Answer: answer}
}

func normalizeCombined(resp analyzeResponse) result.Combined {
	return result.Combined{
		Summary:  result.Summary{Text: resp.Summary},
		Entities: normalizeEntities(resp.Entities),
		QA:       normalizeExtractive(resp.QA),
	}
}
