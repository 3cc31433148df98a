package browser

import (
	"context"
	"fmt"

	"github.com/v0xg/formpilot/internal/locator"
)

// PageMap represents the analyzed structure of a web page
type PageMap struct {
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Elements   []Element `json:"elements"`
	Navigation []NavItem `json:"navigation,omitempty"`
	IsSPA      bool      `json:"isSPA"`
}

// Element is an interactive element with a locator suggested for scripts
type Element struct {
	Locator     string   `json:"locator"`
	Kind        string   `json:"kind"` // text, password, textarea, select, datalist, checkbox, radio, button, link, ...
	Label       string   `json:"label,omitempty"`
	Text        string   `json:"text,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty"`
}

// NavItem represents a navigation link
type NavItem struct {
	Locator string `json:"locator"`
	Text    string `json:"text"`
	Href    string `json:"href"`
}

// Inspect extracts the interactive elements of the current page
func (b *Browser) Inspect(ctx context.Context) (*PageMap, error) {
	page := b.page.Context(ctx)

	info, err := page.Eval(`() => ({ url: window.location.href, title: document.title })`)
	if err != nil {
		return nil, fmt.Errorf("read page info: %w", err)
	}
	isSPA, err := detectSPA(page)
	if err != nil {
		return nil, err
	}

	res, err := page.Eval(extractElementsJS)
	if err != nil {
		return nil, fmt.Errorf("extract elements: %w", err)
	}
	var raw []Element
	for _, v := range res.Value.Get("elements").Arr() {
		el := Element{
			Locator:     v.Get("locator").Str(),
			Kind:        v.Get("kind").Str(),
			Label:       v.Get("label").Str(),
			Text:        v.Get("text").Str(),
			Placeholder: v.Get("placeholder").Str(),
		}
		for _, o := range v.Get("options").Arr() {
			el.Options = append(el.Options, o.Str())
		}
		raw = append(raw, el)
	}
	var nav []NavItem
	for _, v := range res.Value.Get("navigation").Arr() {
		nav = append(nav, NavItem{
			Locator: v.Get("locator").Str(),
			Text:    v.Get("text").Str(),
			Href:    v.Get("href").Str(),
		})
	}

	return &PageMap{
		URL:        info.Value.Get("url").Str(),
		Title:      info.Value.Get("title").Str(),
		Elements:   usableElements(raw),
		Navigation: usableNav(nav),
		IsSPA:      isSPA,
	}, nil
}

// usableElements drops entries whose suggested locator does not parse or is
// already taken by an earlier element
func usableElements(raw []Element) []Element {
	seen := map[string]bool{}
	var out []Element
	for _, el := range raw {
		loc, err := locator.Parse(el.Locator)
		if err != nil {
			continue
		}
		el.Locator = loc.String()
		if seen[el.Locator] {
			continue
		}
		seen[el.Locator] = true
		out = append(out, el)
	}
	return out
}

func usableNav(raw []NavItem) []NavItem {
	var out []NavItem
	for _, item := range raw {
		loc, err := locator.Parse(item.Locator)
		if err != nil {
			continue
		}
		item.Locator = loc.String()
		out = append(out, item)
	}
	return out
}

// extractElementsJS suggests, per visible interactive element, the first of
// id, a document-unique name, or an absolute XPath
const extractElementsJS = `() => {
	const norm = s => (s || '').replace(/\s+/g, ' ').trim().slice(0, 60);

	function xpathOf(el) {
		const parts = [];
		for (let cur = el; cur && cur.nodeType === 1; cur = cur.parentElement) {
			const tag = cur.tagName.toLowerCase();
			const same = Array.from(cur.parentElement ? cur.parentElement.children : [])
				.filter(s => s.tagName === cur.tagName);
			parts.unshift(same.length > 1 ? tag + '[' + (same.indexOf(cur) + 1) + ']' : tag);
		}
		return '/' + parts.join('/');
	}

	function locatorOf(el) {
		if (el.id) return 'id=' + el.id;
		const name = el.getAttribute('name');
		if (name && document.getElementsByName(name).length === 1) return 'name=' + name;
		return 'xpath=' + xpathOf(el);
	}

	function labelOf(el) {
		if (el.labels && el.labels.length > 0) return norm(el.labels[0].textContent);
		return norm(el.getAttribute('aria-label'));
	}

	function kindOf(el) {
		const tag = el.tagName.toLowerCase();
		if (tag === 'select' || tag === 'textarea' || tag === 'button') return tag;
		if (tag === 'a') return 'link';
		if (el.getAttribute('role') === 'button') return 'button';
		if (el.list) return 'datalist';
		return el.type || 'text';
	}

	function optionsOf(el) {
		if (el.tagName === 'SELECT') return Array.from(el.options).map(o => norm(o.text));
		if (el.list) return Array.from(el.list.options).map(o => norm(o.value || o.label));
		return [];
	}

	const elements = [];
	document.querySelectorAll('input:not([type="hidden"]), textarea, select, button, [role="button"], a[href]').forEach(el => {
		if (!el.offsetParent) return;
		if (el.tagName === 'A') {
			const href = el.getAttribute('href');
			if (href.startsWith('#') || href.startsWith('javascript:')) return;
		}
		elements.push({
			locator: locatorOf(el),
			kind: kindOf(el),
			label: labelOf(el),
			text: norm(el.tagName === 'INPUT' ? el.value : el.textContent),
			placeholder: el.placeholder || '',
			options: optionsOf(el)
		});
	});

	const navigation = [];
	const seen = new Set();
	document.querySelectorAll('nav a, header a, [role="navigation"] a').forEach(el => {
		if (!el.offsetParent) return;
		const href = el.getAttribute('href');
		if (!href || href === '#' || href.startsWith('javascript:') || seen.has(href)) return;
		seen.add(href);
		navigation.push({ locator: locatorOf(el), text: norm(el.textContent), href: href });
	});

	return { elements, navigation };
}`
