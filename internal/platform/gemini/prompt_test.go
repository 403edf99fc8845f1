package gemini

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/loreforge-api/internal/domain"
	"github.com/phrazzld/loreforge-api/internal/generation"
)

func TestBuildPrompt_AllAssetKinds(t *testing.T) {
	t.Parallel()

	params := json.RawMessage(`{
		"subject": "Kaelen the Wayfinder",
		"description": "a weathered elven ranger with silver hair",
		"style": "oil painting",
		"setting": "the Duskwood frontier"
	}`)

	kinds := []domain.AssetKind{
		domain.AssetKindPortrait,
		domain.AssetKindBuildingExterior,
		domain.AssetKindTerrainMap,
		domain.AssetKindPoliticalMap,
		domain.AssetKindTextureVariants,
	}

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			prompt, err := buildPrompt(kind, params)
			require.NoError(t, err)
			assert.Contains(t, prompt, "Kaelen the Wayfinder")
			assert.NotContains(t, prompt, "{{", "template must render fully")
		})
	}
}

func TestBuildPrompt_EmptyParamsUsesDefaults(t *testing.T) {
	t.Parallel()

	prompt, err := buildPrompt(domain.AssetKindPortrait, nil)
	require.NoError(t, err)
	assert.Contains(t, prompt, "a fantasy character")
}

func TestBuildPrompt_UnknownKind(t *testing.T) {
	t.Parallel()

	_, err := buildPrompt(domain.AssetKind("soundtrack"), nil)
	assert.ErrorIs(t, err, generation.ErrUnsupportedKind)
}

func TestBuildPrompt_MalformedParams(t *testing.T) {
	t.Parallel()

	_, err := buildPrompt(domain.AssetKindPortrait, json.RawMessage(`{"subject": 12`))
	assert.ErrorIs(t, err, generation.ErrMissingParameters)
}

func TestBuildPrompt_StyleIsIncluded(t *testing.T) {
	t.Parallel()

	prompt, err := buildPrompt(domain.AssetKindTerrainMap, json.RawMessage(`{"style":"hand-drawn ink"}`))
	require.NoError(t, err)
	assert.Contains(t, prompt, "hand-drawn ink")
}
