package page

import (
	"net/url"
	"strings"
)

// SelectorForTarget turns a navigate target into a CSS selector.
//
// Models answer with either a selector or the href of a link from the
// snapshot. URL-like targets (a scheme, a leading "/", or "mailto:") become a
// selector group matching anchors by their absolute href, their same-origin
// path form and the fragment id. Anything else is returned unchanged.
func SelectorForTarget(target, pageURL string) string {
	target = strings.TrimSpace(target)
	if !isURLLike(target) {
		return target
	}

	var parts []string
	seen := make(map[string]bool)
	add := func(sel string) {
		if !seen[sel] {
			seen[sel] = true
			parts = append(parts, sel)
		}
	}

	add(hrefSelector(target))

	ref, err := url.Parse(target)
	if err != nil {
		return strings.Join(parts, ", ")
	}

	if base, err := url.Parse(pageURL); err == nil && pageURL != "" {
		abs := base.ResolveReference(ref)
		add(hrefSelector(abs.String()))
		if abs.Scheme == base.Scheme && abs.Host == base.Host && abs.Host != "" {
			path := abs.RequestURI()
			if abs.Fragment != "" {
				path += "#" + abs.EscapedFragment()
			}
			add(hrefSelector(path))
		}
	}

	if ref.Fragment != "" {
		add(`[id="` + cssString(ref.Fragment) + `"]`)
	}

	return strings.Join(parts, ", ")
}

func isURLLike(target string) bool {
	return strings.Contains(target, "://") ||
		strings.HasPrefix(target, "/") ||
		strings.HasPrefix(strings.ToLower(target), "mailto:")
}

func hrefSelector(href string) string {
	return `a[href="` + cssString(href) + `"]`
}

// cssString escapes s for use inside a double-quoted CSS string.
func cssString(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
