package gemini

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/phrazzld/loreforge-api/internal/domain"
	"github.com/phrazzld/loreforge-api/internal/generation"
)

// promptData is the template input for a single image prompt. The fields are
// lifted from the job's parameter bag; anything the requesting feature did
// not set renders as an empty clause.
type promptData struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Style       string `json:"style"`
	Setting     string `json:"setting"`
}

// assetPrompts holds one prompt template per asset kind. The templates are
// parsed once at package init; an unknown kind is an ErrUnsupportedKind at
// call time, never a template lookup panic.
var assetPrompts = map[domain.AssetKind]*template.Template{
	domain.AssetKindPortrait: mustPrompt("portrait", `Character portrait of {{or .Subject "a fantasy character"}}.
{{with .Description}}{{.}}. {{end}}Head-and-shoulders framing, detailed face, neutral background.
{{with .Style}}Art style: {{.}}.{{end}}{{with .Setting}} Setting: {{.}}.{{end}}`),

	domain.AssetKindBuildingExterior: mustPrompt("building_exterior", `Exterior view of {{or .Subject "a building"}}.
{{with .Description}}{{.}}. {{end}}Full structure visible, eye-level perspective, natural lighting.
{{with .Style}}Art style: {{.}}.{{end}}{{with .Setting}} Setting: {{.}}.{{end}}`),

	domain.AssetKindTerrainMap: mustPrompt("terrain_map", `Top-down terrain map of {{or .Subject "a region"}}.
{{with .Description}}{{.}}. {{end}}Cartographic style with elevation shading, rivers, and forests clearly legible.
{{with .Style}}Rendered as {{.}}.{{end}}`),

	domain.AssetKindPoliticalMap: mustPrompt("political_map", `Political map of {{or .Subject "a region"}} with labeled borders and territories.
{{with .Description}}{{.}}. {{end}}Distinct colors per realm, clean cartographic linework.
{{with .Style}}Rendered as {{.}}.{{end}}`),

	domain.AssetKindTextureVariants: mustPrompt("texture_variants", `Seamless tileable texture of {{or .Subject "a surface material"}}.
{{with .Description}}{{.}}. {{end}}Uniform lighting, no visible seams, suitable for 3D material use.
{{with .Style}}Style: {{.}}.{{end}}`),
}

func mustPrompt(name, text string) *template.Template {
	return template.Must(template.New(name).Parse(text))
}

// buildPrompt renders the prompt for the given asset kind from the job's
// parameter bag. A missing or empty bag is fine; the templates carry
// defaults for every field.
func buildPrompt(assetKind domain.AssetKind, params json.RawMessage) (string, error) {
	promptTemplate, ok := assetPrompts[assetKind]
	if !ok {
		return "", fmt.Errorf("%w: %s", generation.ErrUnsupportedKind, assetKind)
	}

	var data promptData
	if len(params) > 0 {
		if err := json.Unmarshal(params, &data); err != nil {
			return "", fmt.Errorf("%w: malformed params: %v", generation.ErrMissingParameters, err)
		}
	}

	var promptBuffer bytes.Buffer
	if err := promptTemplate.Execute(&promptBuffer, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return promptBuffer.String(), nil
}
