package librarian

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/samcaf/librarian/internal/log"
)

// Summary renders the project-level markdown: identity, metadata in
// manifest order, and one section per catalog with its location,
// description, and entry count. A catalog that cannot be loaded renders
// with an unknown count rather than failing the whole summary.
func (p *Project) Summary() string {
	title := cases.Title(language.English)

	var b strings.Builder
	fmt.Fprintf(&b, "# Librarian for '%s'\n\n", p.Manifest.Project)
	if p.Manifest.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", p.Manifest.Description)
	}

	if items := p.Manifest.MetadataItems(); len(items) > 0 {
		b.WriteString("## Project Metadata\n\n")
		for _, it := range items {
			fmt.Fprintf(&b, "- **%s**: %s\n", title.String(it.Key), it.Value)
		}
		b.WriteString("\n")
	}

	if len(p.Manifest.Catalogs) == 0 {
		return b.String()
	}

	b.WriteString("## Catalog Data\n")
	for _, spec := range p.Manifest.Catalogs {
		dir := spec.ResolveDir(p.Root)
		shown := dir
		if rel, err := filepath.Rel(p.Root, dir); err == nil && !strings.HasPrefix(rel, "..") {
			shown = rel
		}

		fmt.Fprintf(&b, "\n### %s\n\n", spec.Name)
		fmt.Fprintf(&b, "- **Location**: %s\n", shown)
		if spec.Description != "" {
			fmt.Fprintf(&b, "- **Description**: %s\n", spec.Description)
		}
		if len(spec.Extensions) > 0 {
			fmt.Fprintf(&b, "- **Extensions**: %s\n", strings.Join(spec.Extensions, ", "))
		}

		if c, err := p.Catalog(spec.Name); err == nil {
			fmt.Fprintf(&b, "- **Entries**: %d\n", c.Len())
		} else {
			log.Warnw("cannot load catalog for summary", "name", spec.Name, "error", err)
			b.WriteString("- **Entries**: unknown\n")
		}
	}
	return b.String()
}
