// Package detection holds the lexical hate-speech classifier and the reformulator.
package detection

import "hackspeech/internal/models"

// LexiconEntry maps one category to the terms that trigger it.
type LexiconEntry struct {
	Category models.Category
	Terms    []string
}

// lexicon is evaluated in this order; on equal scores the earlier category wins.
var lexicon = []LexiconEntry{
	{Category: models.CategoryRacism, Terms: []string{"sale", "nègre", "arabe", "étranger", "race"}},
	{Category: models.CategorySexism, Terms: []string{"femme", "cuisine", "faible", "soumise"}},
	{Category: models.CategoryGeneralInsult, Terms: []string{"idiot", "stupide", "nul", "débile", "con", "imbécile", "crétin", "merde"}},
	{Category: models.CategoryHomophobia, Terms: []string{"gay", "homo", "pd", "tapette"}},
	{Category: models.CategoryReligious, Terms: []string{"mécréant", "kafir", "infidèle"}},
	{Category: models.CategoryAbleism, Terms: nil},
}

// Lexicon returns a copy of the ordered lexicon.
func Lexicon() []LexiconEntry {
	out := make([]LexiconEntry, len(lexicon))
	for i, e := range lexicon {
		out[i] = LexiconEntry{Category: e.Category, Terms: append([]string(nil), e.Terms...)}
	}
	return out
}

// Categories lists every category in evaluation order.
func Categories() []models.Category {
	out := make([]models.Category, len(lexicon))
	for i, e := range lexicon {
		out[i] = e.Category
	}
	return out
}

// substitution is one local reformulation rule.
type substitution struct {
	term        string
	replacement string
}

// substitutions are applied in order, case-insensitively, to every occurrence.
var substitutions = []substitution{
	{"idiot", "personne avec qui je suis en désaccord"},
	{"stupide", "pas très réfléchi"},
	{"nul", "qui peut s'améliorer"},
	{"débile", "qui ne comprend pas encore"},
	{"con", "personne qui pense différemment"},
	{"imbécile", "personne qui n'a pas compris"},
	{"crétin", "personne qui peut apprendre"},
}
