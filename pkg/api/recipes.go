package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mise-en-place/cli/pkg/recipe"
)

type urlRequest struct {
	URL string `json:"url"`
}

type saveRequest struct {
	URL        string         `json:"url"`
	RecipeData map[string]any `json:"recipeData,omitempty"`
}

type previewBody struct {
	RecipeData  json.RawMessage   `json:"recipe_data"`
	Recipes     []json.RawMessage `json:"recipes"`
	RecipeCount *int              `json:"recipe_count"`
	LogID       json.RawMessage   `json:"log_id"`
}

// SaveResult is the outcome of a successful save.
type SaveResult struct {
	RecipeURL string `json:"recipe_url"`
}

// PreviewRecipe asks the service to extract recipes from sourceURL without
// saving them. The remote side fetches and parses the page, which can take
// tens of seconds; only ctx bounds the wait.
func (c *Client) PreviewRecipe(ctx context.Context, token, sourceURL string) (recipe.PreviewResult, error) {
	if err := requireTokenAndURL(token, sourceURL); err != nil {
		return recipe.PreviewResult{}, err
	}

	var body previewBody
	if err := c.do(ctx, "preview", http.MethodPost, "/api/extension/preview", token, urlRequest{URL: sourceURL}, &body); err != nil {
		return recipe.PreviewResult{}, err
	}
	return c.previewResult(sourceURL, body)
}

func (c *Client) previewResult(sourceURL string, body previewBody) (recipe.PreviewResult, error) {
	res := recipe.PreviewResult{
		LogID:     scalarText(body.LogID),
		SourceURL: sourceURL,
	}

	switch {
	case len(body.Recipes) > 0:
		for _, raw := range body.Recipes {
			d, err := decodeDraft(raw)
			if err != nil {
				return recipe.PreviewResult{}, err
			}
			res.Recipes = append(res.Recipes, d)
		}
		if body.RecipeCount != nil && *body.RecipeCount != len(res.Recipes) {
			c.log.Warn("recipe_count does not match recipes", c.log.Args("recipe_count", *body.RecipeCount, "recipes", len(res.Recipes)))
		}
	case len(body.RecipeData) > 0 && string(body.RecipeData) != "null":
		d, err := decodeDraft(body.RecipeData)
		if err != nil {
			return recipe.PreviewResult{}, err
		}
		res.Recipes = []recipe.Draft{d}
	default:
		return recipe.PreviewResult{}, ErrEmptyPreview
	}
	return res, nil
}

// SaveRecipe imports sourceURL into the user's collection. With a nil draft
// the service runs its own extraction; otherwise the draft is saved as given.
func (c *Client) SaveRecipe(ctx context.Context, token, sourceURL string, draft *recipe.Draft) (SaveResult, error) {
	if err := requireTokenAndURL(token, sourceURL); err != nil {
		return SaveResult{}, err
	}

	req := saveRequest{URL: sourceURL}
	if draft != nil {
		req.RecipeData = encodeDraft(*draft)
	}

	var res SaveResult
	if err := c.do(ctx, "import", http.MethodPost, "/api/extension/import", token, req, &res); err != nil {
		return SaveResult{}, err
	}
	return res, nil
}

func requireTokenAndURL(token, sourceURL string) error {
	if token == "" {
		return Validationf("Please log in first")
	}
	if strings.TrimSpace(sourceURL) == "" {
		return Validationf("a source URL is required")
	}
	return nil
}
