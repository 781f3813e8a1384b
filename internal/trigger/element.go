package trigger

// Element is an activatable control on the page.
type Element interface {
	ID() string
	Label() string
	SetLabel(label string)
	SetDisabled(disabled bool)
}

// Parented is implemented by elements nested inside other elements. Activation
// of a child resolves to the nearest registered ancestor.
type Parented interface {
	Parent() Element
}

// Page is the browsing context the element lives in.
type Page interface {
	Navigate(url string)
	Notify(message string)
}

// maxAncestors stops a cyclic Parent chain.
const maxAncestors = 64

func (h *Handler) resolve(el Element) (Element, Intent, bool) {
	for depth := 0; el != nil && depth < maxAncestors; depth++ {
		if intent, ok := h.Registry.Lookup(el.ID()); ok {
			return el, intent, true
		}
		p, ok := el.(Parented)
		if !ok {
			break
		}
		el = p.Parent()
	}
	return nil, Intent{}, false
}
