package pipeline

import (
	"strings"

	"github.com/graphling/graphrag/model"
)

var organizationSuffixes = []string{
	"Inc.", "Corp.", "Corporation", "Ltd.", "LLC", "Co.", "Company",
	"GmbH", "AG", "S.A.", "Pvt. Ltd.",
}

var personHonorifics = []string{
	"Dr.", "Mr.", "Ms.", "Mrs.", "Prof.", "CEO", "CTO", "CFO",
}

// NormalizeMentions groups raw mentions into canonical entities by their
// normalized (name, type) key. The canonical name of a group is its most
// frequent raw surface form, ties resolved by first occurrence. Order of the
// returned entities follows first occurrence, so the result is deterministic
// for a fixed mention order.
func NormalizeMentions(mentions []model.Mention) []*model.CanonicalEntity {
	groups := map[string]*model.CanonicalEntity{}
	var order []string

	for _, mention := range mentions {
		normalized := NormalizeEntityName(mention.Text, mention.Type)
		if normalized == "" || normalized == "unknown" {
			continue
		}

		key := mention.Type + ":" + normalized
		group, ok := groups[key]
		if !ok {
			group = &model.CanonicalEntity{
				Normalized: normalized,
				Type:       mention.Type,
			}
			groups[key] = group
			order = append(order, key)
		}
		group.Mentions = append(group.Mentions, mention)
	}

	entities := make([]*model.CanonicalEntity, 0, len(order))
	for _, key := range order {
		group := groups[key]
		group.CanonicalName = canonicalForm(group.Mentions)
		group.MentionCount = len(group.Mentions)
		group.SurfaceForms = surfaceForms(group.Mentions)
		entities = append(entities, group)
	}

	return entities
}

// NormalizeEntityName maps a raw surface form onto its normalized form for
// grouping. Organizations lose their legal suffixes, persons their
// honorifics, everything is trimmed and lowercased.
func NormalizeEntityName(name string, entityType string) string {
	name = strings.TrimSpace(name)

	switch entityType {
	case model.EntityTypeOrg:
		for _, suffix := range organizationSuffixes {
			if strings.HasSuffix(name, " "+suffix) {
				name = strings.TrimSpace(strings.TrimSuffix(name, " "+suffix))
				break
			}
		}
	case model.EntityTypePerson:
		// Honorifics are removed wherever they occur, not only as a prefix.
		for _, honorific := range personHonorifics {
			name = strings.TrimSpace(strings.ReplaceAll(name, honorific, ""))
		}
	}

	return strings.ToLower(name)
}

// canonicalForm returns the most frequent raw surface form of the group,
// ties resolved by first occurrence.
func canonicalForm(mentions []model.Mention) string {
	counts := map[string]int{}
	var order []string

	for _, mention := range mentions {
		if _, ok := counts[mention.Text]; !ok {
			order = append(order, mention.Text)
		}
		counts[mention.Text]++
	}

	best := ""
	bestCount := 0
	for _, form := range order {
		if counts[form] > bestCount {
			best = form
			bestCount = counts[form]
		}
	}

	return best
}

func surfaceForms(mentions []model.Mention) []string {
	seen := map[string]bool{}
	var forms []string
	for _, mention := range mentions {
		if !seen[mention.Text] {
			seen[mention.Text] = true
			forms = append(forms, mention.Text)
		}
	}
	return forms
}
