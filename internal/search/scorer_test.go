package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"jogo", "de", "acao", "ps5"}, Tokenize("Jogo de AÇÃO - PS5 / ps5"))
	assert.Empty(t, Tokenize("  --  "))
}

func TestIsNumeric(t *testing.T) {
	assert.True(t, IsNumeric("6"))
	assert.True(t, IsNumeric("2024"))
	assert.False(t, IsNumeric("ps5"))
	assert.False(t, IsNumeric(""))
}

func TestScore_NumericOnlyMatchIsRejected(t *testing.T) {
	res := Score("Far Cry 6", Candidate{Name: "Street Fighter 6"})
	assert.True(t, res.Rejected)
	assert.Zero(t, res.Score)
	assert.Equal(t, []string{"6"}, res.Matched)
}

func TestScore_AllTokensMatchWithWordIsNotRejected(t *testing.T) {
	res := Score("street 6", Candidate{Name: "Street Fighter 6"})
	assert.False(t, res.Rejected)
	assert.InDelta(t, 100, res.Score, 0.001)
}

func TestScore_NumericQueryNeverRejected(t *testing.T) {
	for _, name := range []string{"Street Fighter 6", "Far Cry 6"} {
		res := Score("6", Candidate{Name: name})
		assert.False(t, res.Rejected, name)
		assert.Greater(t, res.Score, 0.0, name)
	}

	res := Score("6 2024", Candidate{Name: "Street Fighter 6"})
	assert.False(t, res.Rejected)
}

func TestScore_NumericMatchWithTagWordIsNotRejected(t *testing.T) {
	res := Score("fighter 6", Candidate{Name: "Street Fighter 6", Tags: []string{"luta"}})
	assert.False(t, res.Rejected)
	assert.Equal(t, []string{"fighter", "6"}, res.Matched)
}

func TestScore_ExactTitleIsCapped(t *testing.T) {
	res := Score("far cry 6", Candidate{Name: "Far Cry 6"})
	assert.InDelta(t, 100, res.Score, 0.001)
}

func TestScore_PrefixAndPhrase(t *testing.T) {
	res := Score("fight", Candidate{Name: "Street Fighter 6"})
	require.False(t, res.Rejected)
	assert.InDelta(t, 60, res.Score, 0.001)
}

func TestScore_ShortPrefixDoesNotMatch(t *testing.T) {
	res := Score("st", Candidate{Name: "Street Fighter 6"})
	assert.Zero(t, res.Score)
	assert.Empty(t, res.Matched)
}

func TestScore_NumbersOnlyMatchExactly(t *testing.T) {
	res := Score("20", Candidate{Name: "FIFA 2024"})
	assert.Zero(t, res.Score)
}

func TestScore_TagWeighsLessThanName(t *testing.T) {
	byTag := Score("ps5", Candidate{Name: "God of War", Tags: []string{"PS5"}})
	byName := Score("ps5", Candidate{Name: "Console PS5"})
	assert.InDelta(t, 50, byTag.Score, 0.001)
	assert.Greater(t, byName.Score, byTag.Score)
}

func TestScore_IgnoresDiacritics(t *testing.T) {
	res := Score("acao", Candidate{Name: "Jogo de Ação"})
	assert.InDelta(t, 100, res.Score, 0.001)
}

func TestScore_EmptyQuery(t *testing.T) {
	assert.Equal(t, Result{}, Score("   ", Candidate{Name: "Far Cry 6"}))
}

func TestRank(t *testing.T) {
	type product struct {
		name string
		tags []string
	}
	items := []product{
		{name: "Street Fighter 6"},
		{name: "Far Cry 5"},
		{name: "Far Cry 6"},
		{name: "Farming Simulator", tags: []string{"pc"}},
	}

	ranked := Rank("far cry 6", items, func(p product) Candidate {
		return Candidate{Name: p.name, Tags: p.tags}
	}, 0)

	require.Len(t, ranked, 3)
	assert.Equal(t, "Far Cry 6", ranked[0].Item.name)
	assert.Equal(t, "Far Cry 5", ranked[1].Item.name)
	assert.Equal(t, "Farming Simulator", ranked[2].Item.name)
	for _, r := range ranked {
		assert.NotEqual(t, "Street Fighter 6", r.Item.name)
	}
}

func TestRank_MinScore(t *testing.T) {
	names := []string{"Far Cry 6", "Farming Simulator"}
	ranked := Rank("far cry", names, func(n string) Candidate { return Candidate{Name: n} }, 50)
	require.Len(t, ranked, 1)
	assert.Equal(t, "Far Cry 6", ranked[0].Item)
}
