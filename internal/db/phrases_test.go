package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPhrases(t *testing.T) {
	input := `language,text,mature
es, Algo rojo
EN,Something blue,false
en,Something spicy,true
,No language
fr,
`
	records, err := ReadPhrases(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []PhraseRecord{
		{Language: "es", Text: "Algo rojo"},
		{Language: "en", Text: "Something blue"},
		{Language: "en", Text: "Something spicy", Mature: true},
	}, records)
}

func TestReadPhrasesEmpty(t *testing.T) {
	records, err := ReadPhrases(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}
