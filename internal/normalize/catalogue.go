package normalize

import (
	"sort"

	"github.com/Fmazzesi/zefixtools/internal/registry"
)

// Catalogue maps legal-form ids to their catalogue entries. It is built
// once per top-level operation and only read afterwards.
type Catalogue map[int]registry.LegalForm

// NewCatalogue indexes forms by id. The first entry for an id wins.
func NewCatalogue(forms []registry.LegalForm) Catalogue {
	c := make(Catalogue, len(forms))
	for _, f := range forms {
		if _, dup := c[f.ID]; dup {
			continue
		}
		c[f.ID] = f
	}
	return c
}

// Name returns the English name of a legal form.
func (c Catalogue) Name(id int) (string, bool) {
	f, ok := c[id]
	if !ok {
		return "", false
	}
	name := f.Name.English()
	return name, name != ""
}

// Sorted returns the entries ordered by id.
func (c Catalogue) Sorted() []registry.LegalForm {
	out := make([]registry.LegalForm, 0, len(c))
	for _, f := range c {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
