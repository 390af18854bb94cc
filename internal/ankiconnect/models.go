package ankiconnect

import (
	"context"
)

// CardTemplate is one card of a note type.
type CardTemplate struct {
	Name  string `json:"Name"`
	Front string `json:"Front"`
	Back  string `json:"Back"`
}

// ModelSpec describes a note type to create.
type ModelSpec struct {
	Name      string
	Fields    []string
	CSS       string
	Templates []CardTemplate
}

// ModelNames lists every note type.
func (c *Client) ModelNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.do(ctx, ActionModelNames, nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// ModelFieldNames lists the fields of model in order.
func (c *Client) ModelFieldNames(ctx context.Context, model string) ([]string, error) {
	var names []string
	if err := c.do(ctx, ActionModelFieldNames, map[string]any{"modelName": model}, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// CreateModel creates a standard (non-cloze) note type.
func (c *Client) CreateModel(ctx context.Context, spec ModelSpec) error {
	params := map[string]any{
		"modelName":     spec.Name,
		"inOrderFields": spec.Fields,
		"css":           spec.CSS,
		"isCloze":       false,
		"cardTemplates": spec.Templates,
	}
	return c.do(ctx, ActionCreateModel, params, nil)
}

// ModelTemplates returns the templates of model keyed by card name.
func (c *Client) ModelTemplates(ctx context.Context, model string) (map[string]CardTemplate, error) {
	var raw map[string]struct {
		Front string `json:"Front"`
		Back  string `json:"Back"`
	}
	if err := c.do(ctx, ActionModelTemplates, map[string]any{"modelName": model}, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]CardTemplate, len(raw))
	for name, t := range raw {
		out[name] = CardTemplate{Name: name, Front: t.Front, Back: t.Back}
	}
	return out, nil
}

// ModelStyling returns the CSS of model.
func (c *Client) ModelStyling(ctx context.Context, model string) (string, error) {
	var styling struct {
		CSS string `json:"css"`
	}
	if err := c.do(ctx, ActionModelStyling, map[string]any{"modelName": model}, &styling); err != nil {
		return "", err
	}
	return styling.CSS, nil
}

// UpdateModelTemplates replaces the front and back of the named cards.
func (c *Client) UpdateModelTemplates(ctx context.Context, model string, templates []CardTemplate) error {
	byName := make(map[string]map[string]string, len(templates))
	for _, t := range templates {
		byName[t.Name] = map[string]string{"Front": t.Front, "Back": t.Back}
	}
	params := map[string]any{
		"model": map[string]any{"name": model, "templates": byName},
	}
	return c.do(ctx, ActionUpdateModelTemplates, params, nil)
}

// UpdateModelStyling replaces the CSS of model.
func (c *Client) UpdateModelStyling(ctx context.Context, model, css string) error {
	params := map[string]any{
		"model": map[string]any{"name": model, "css": css},
	}
	return c.do(ctx, ActionUpdateModelStyling, params, nil)
}
