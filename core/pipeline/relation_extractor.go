package pipeline

import (
	"strings"
	"unicode/utf8"

	"github.com/graphling/graphrag/model"
)

// contextWindow is the number of characters kept on each side of a matched
// relation phrase.
const contextWindow = 100

const (
	keywordConfidence   = 0.7
	coMentionConfidence = 0.3
)

// relationKeywords maps relation types to the phrases that signal them.
// Order is fixed so extraction is deterministic.
var relationKeywords = []struct {
	Type    model.RelationType
	Phrases []string
}{
	{model.RelationWorksFor, []string{"works for", "works at", "employed by", "employee of"}},
	{model.RelationFounded, []string{"founded", "created", "started", "established"}},
	{model.RelationLeads, []string{"CEO of", "CTO of", "CFO of", "leads", "director of", "president of"}},
	{model.RelationPartnersWith, []string{"partnership with", "partnered with", "collaboration with"}},
	{model.RelationRaisedFunding, []string{"raised funding", "received investment", "funding round"}},
	{model.RelationCoFounded, []string{"co-founded", "founded together", "co-founded with"}},
}

// ExtractRelations derives relationships between the given entities from the
// chunks they are mentioned in. A keyword phrase relates all entity pairs
// whose canonical names appear within a context window around its first
// occurrence in a chunk. Every entity pair sharing a chunk additionally gets
// a low-confidence co-mention edge, so a pair can carry more than one
// relation type. Duplicate (pair, type) edges are dropped symmetrically, the
// first direction wins.
func ExtractRelations(chunks []*model.Chunk, entities []*model.CanonicalEntity) []*model.Relationship {
	var relationships []*model.Relationship
	seen := map[string]bool{}

	for _, chunk := range chunks {
		chunkEntities := entitiesInChunk(chunk.ChunkIndex, entities)
		if len(chunkEntities) < 2 {
			continue
		}

		lower := strings.ToLower(chunk.Content)

		for _, relation := range relationKeywords {
			for _, phrase := range relation.Phrases {
				idx := strings.Index(lower, strings.ToLower(phrase))
				if idx < 0 {
					continue
				}

				// Lowercasing can change byte length, so the lowered text and the
				// original content are sliced with their own bounds.
				start := idx - contextWindow
				if start < 0 {
					start = 0
				}
				end := idx + len(phrase) + contextWindow
				if end > len(lower) {
					end = len(lower)
				}
				contextEnd := end
				if contextEnd > len(chunk.Content) {
					contextEnd = len(chunk.Content)
				}
				contextStart := start
				if contextStart > contextEnd {
					contextStart = contextEnd
				}
				for contextStart > 0 && !utf8.RuneStart(chunk.Content[contextStart]) {
					contextStart--
				}
				for contextEnd < len(chunk.Content) && !utf8.RuneStart(chunk.Content[contextEnd]) {
					contextEnd++
				}

				windowEntities := entitiesInWindow(chunkEntities, lower[start:end])
				for i := 0; i < len(windowEntities); i++ {
					for j := i + 1; j < len(windowEntities); j++ {
						source, target := windowEntities[i], windowEntities[j]
						if duplicate(seen, source.Key(), target.Key(), relation.Type) {
							continue
						}

						relationships = append(relationships, &model.Relationship{
							SourceKey:    source.Key(),
							TargetKey:    target.Key(),
							SourceEntity: source.CanonicalName,
							TargetEntity: target.CanonicalName,
							Type:         relation.Type,
							Confidence:   keywordConfidence,
							Context:      chunk.Content[contextStart:contextEnd],
							ChunkIndex:   chunk.ChunkIndex,
						})
					}
				}
			}
		}

		context := chunk.Content
		if len(context) > 200 {
			context = truncateOnRuneBoundary(context, 200) + "..."
		}

		for i := 0; i < len(chunkEntities); i++ {
			for j := i + 1; j < len(chunkEntities); j++ {
				source, target := chunkEntities[i], chunkEntities[j]
				if duplicate(seen, source.Key(), target.Key(), model.RelationCoMentioned) {
					continue
				}

				relationships = append(relationships, &model.Relationship{
					SourceKey:    source.Key(),
					TargetKey:    target.Key(),
					SourceEntity: source.CanonicalName,
					TargetEntity: target.CanonicalName,
					Type:         model.RelationCoMentioned,
					Confidence:   coMentionConfidence,
					Context:      context,
					ChunkIndex:   chunk.ChunkIndex,
				})
			}
		}
	}

	return relationships
}

// entitiesInChunk returns the entities with at least one mention inside the
// chunk, preserving entity order.
func entitiesInChunk(chunkIndex int, entities []*model.CanonicalEntity) []*model.CanonicalEntity {
	var result []*model.CanonicalEntity
	for _, entity := range entities {
		for _, mention := range entity.Mentions {
			if mention.ChunkIndex == chunkIndex {
				result = append(result, entity)
				break
			}
		}
	}
	return result
}

// entitiesInWindow returns the entities whose canonical name appears in the
// already-lowercased window text.
func entitiesInWindow(entities []*model.CanonicalEntity, windowLower string) []*model.CanonicalEntity {
	var result []*model.CanonicalEntity
	for _, entity := range entities {
		if strings.Contains(windowLower, strings.ToLower(entity.CanonicalName)) {
			result = append(result, entity)
		}
	}
	return result
}

// duplicate checks and records the symmetric dedup key of an edge.
func duplicate(seen map[string]bool, sourceKey string, targetKey string, relationType model.RelationType) bool {
	forward := sourceKey + "|" + string(relationType) + "|" + targetKey
	reverse := targetKey + "|" + string(relationType) + "|" + sourceKey
	if seen[forward] || seen[reverse] {
		return true
	}
	seen[forward] = true
	return false
}
