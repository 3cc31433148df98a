package browser

import (
	"context"
	"errors"
	"fmt"
	"image"
	"regexp"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/v0xg/formpilot/internal/driver"
)

var (
	_ driver.Element = (*element)(nil)
	_ driver.Pointer = (*element)(nil)
)

// element adapts a rod element to driver.Element
type element struct {
	el *rod.Element
}

func (e *element) Value(ctx context.Context) (string, error) {
	v, err := e.el.Context(ctx).Property("value")
	if err != nil {
		return "", staleOr(err)
	}
	return v.Str(), nil
}

// Clear selects the whole content and deletes it with a key press, so
// key listeners on the field see the edit
func (e *element) Clear(ctx context.Context) error {
	el := e.el.Context(ctx)
	if err := el.SelectAllText(); err != nil {
		return staleOr(err)
	}
	return staleOr(el.Type(input.Backspace))
}

func (e *element) Input(ctx context.Context, text string) error {
	return staleOr(e.el.Context(ctx).Input(text))
}

func (e *element) Click(ctx context.Context) error {
	return staleOr(e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1))
}

func (e *element) IsChecked(ctx context.Context) (bool, error) {
	v, err := e.el.Context(ctx).Property("checked")
	if err != nil {
		return false, staleOr(err)
	}
	return v.Bool(), nil
}

func (e *element) IsVisible(ctx context.Context) (bool, error) {
	visible, err := e.el.Context(ctx).Visible()
	if err != nil {
		return false, staleOr(err)
	}
	return visible, nil
}

// Options lists option labels of a select, or the suggestions of the datalist
// referenced by an input's list attribute
func (e *element) Options(ctx context.Context) ([]string, error) {
	res, err := e.el.Context(ctx).Eval(`() => {
		const norm = s => (s || '').replace(/\s+/g, ' ').trim();
		if (this.tagName === 'SELECT') {
			return Array.from(this.options).map(o => norm(o.text));
		}
		if (this.list) {
			return Array.from(this.list.options).map(o => norm(o.value || o.label));
		}
		return [];
	}`)
	if err != nil {
		return nil, staleOr(err)
	}
	var labels []string
	for _, v := range res.Value.Arr() {
		labels = append(labels, v.Str())
	}
	return labels, nil
}

// SelectOption selects the option whose label equals text exactly
func (e *element) SelectOption(ctx context.Context, text string) error {
	pattern := "^" + regexp.QuoteMeta(text) + "$"
	return staleOr(e.el.Context(ctx).Select([]string{pattern}, true, rod.SelectorTypeRegex))
}

// Center returns the center of the first content quad
func (e *element) Center(ctx context.Context) (image.Point, error) {
	box, err := e.el.Context(ctx).Shape()
	if err != nil {
		return image.Point{}, staleOr(err)
	}
	if len(box.Quads) == 0 {
		return image.Point{}, fmt.Errorf("element has no shape")
	}

	quad := box.Quads[0]
	x := int((quad[0] + quad[2] + quad[4] + quad[6]) / 4)
	y := int((quad[1] + quad[3] + quad[5] + quad[7]) / 4)
	return image.Pt(x, y), nil
}

// connected reports a detached or released element as stale
func (e *element) connected(ctx context.Context) error {
	res, err := e.el.Context(ctx).Eval(`() => this.isConnected`)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", driver.ErrStaleElement, err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("%w: element is detached from the document", driver.ErrStaleElement)
	}
	return nil
}

// staleOr maps rod's lost-object errors onto driver.ErrStaleElement
func staleOr(err error) error {
	if err == nil {
		return nil
	}
	var notFound *rod.ObjectNotFoundError
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", driver.ErrStaleElement, err)
	}
	return err
}
