package schema

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/cell"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/fault"
)

// AliasFileName is the reserved file name for the alias table inside a
// schema directory.
const AliasFileName = "aliases.toml"

// Source is one named schema document, decoupled from the filesystem so
// tests and embedded catalogs can load from memory.
type Source struct {
	// Name identifies the source in diagnostics (usually the file name).
	Name string
	Data []byte
}

// Catalog is the loaded, immutable set of schema versions plus the alias
// table. Consumers receive an explicit *Catalog; there is no package-level
// cache. Refresh by calling Load again and swapping the pointer.
type Catalog struct {
	versions map[string]*Version
	aliases  map[string]string
	log      *slog.Logger
}

// versionDoc is the TOML shape of one schema version file.
type versionDoc struct {
	ID       string            `toml:"id"`
	Metadata map[string]string `toml:"metadata"`
	Fields   []fieldDoc        `toml:"fields"`
}

type fieldDoc struct {
	Name      string `toml:"name"`
	ValueCell string `toml:"value_cell"`
	LabelCell string `toml:"label_cell"`
	Label     string `toml:"label"`
	Type      string `toml:"type"`
	DropDown  bool   `toml:"drop_down"`
}

// aliasDoc is the TOML shape of the alias file.
type aliasDoc struct {
	Aliases map[string]string `toml:"aliases"`
}

// Load reads every *.toml file in dir (aliases.toml treated as the alias
// table) and builds a Catalog. All validation violations across all sources
// are accumulated into a single schema_invalid error: load happens once per
// process and complete diagnostics matter more than failing fast.
func Load(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fault.Wrap(fault.KindFileError, err, "read schema directory %s", dir)
	}

	var sources []Source
	var aliasSource *Source
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fault.Wrap(fault.KindFileError, err, "read schema source %s", e.Name())
		}
		src := Source{Name: e.Name(), Data: data}
		if e.Name() == AliasFileName {
			aliasSource = &src
			continue
		}
		sources = append(sources, src)
	}

	return LoadSources(sources, aliasSource)
}

// LoadSources builds a Catalog from in-memory sources. aliasSource may be
// nil when no aliases are defined.
func LoadSources(sources []Source, aliasSource *Source) (*Catalog, error) {
	cat := &Catalog{
		versions: make(map[string]*Version, len(sources)),
		aliases:  make(map[string]string),
		log:      slog.Default(),
	}

	var violations []string
	report := func(source, format string, args ...any) {
		violations = append(violations, source+": "+fmt.Sprintf(format, args...))
	}

	// Sort for deterministic violation ordering and duplicate reporting.
	sorted := make([]Source, len(sources))
	copy(sorted, sources)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, src := range sorted {
		var doc versionDoc
		if err := toml.Unmarshal(src.Data, &doc); err != nil {
			report(src.Name, "not valid TOML: %v", err)
			continue
		}
		if doc.ID == "" {
			report(src.Name, "missing schema id")
			continue
		}
		if _, dup := cat.versions[doc.ID]; dup {
			report(src.Name, "duplicate schema id %q", doc.ID)
			continue
		}

		ver := &Version{
			ID:       doc.ID,
			Metadata: doc.Metadata,
			byName:   make(map[string]int, len(doc.Fields)),
		}
		if ver.Metadata == nil {
			ver.Metadata = map[string]string{}
		}

		valid := true
		for i, fd := range doc.Fields {
			spec, errs := buildFieldSpec(fd)
			if len(errs) > 0 {
				valid = false
				for _, msg := range errs {
					report(src.Name, "field %d (%s): %s", i+1, fd.Name, msg)
				}
			}
			if spec.Name == "" {
				continue
			}
			if _, dup := ver.byName[spec.Name]; dup {
				report(src.Name, "duplicate field name %q", spec.Name)
				valid = false
				continue
			}
			ver.byName[spec.Name] = len(ver.fields)
			ver.fields = append(ver.fields, spec)
		}
		if len(doc.Fields) == 0 {
			report(src.Name, "schema %q declares no fields", doc.ID)
			valid = false
		}
		if valid {
			cat.versions[doc.ID] = ver
		}
	}

	if aliasSource != nil {
		var doc aliasDoc
		if err := toml.Unmarshal(aliasSource.Data, &doc); err != nil {
			report(aliasSource.Name, "not valid TOML: %v", err)
		} else {
			for old, current := range doc.Aliases {
				if _, ok := cat.versions[current]; !ok {
					report(aliasSource.Name, "alias %q -> %q: target is not a loaded schema", old, current)
					continue
				}
				if _, shadowed := cat.versions[old]; shadowed {
					report(aliasSource.Name, "alias %q shadows a loaded schema of the same name", old)
					continue
				}
				cat.aliases[old] = current
			}
		}
	}

	if len(violations) > 0 {
		return nil, fault.New(fault.KindSchemaInvalid,
			"%d schema violation(s):\n  %s", len(violations), strings.Join(violations, "\n  "))
	}
	return cat, nil
}

// buildFieldSpec validates one field doc, accumulating every problem rather
// than stopping at the first.
func buildFieldSpec(fd fieldDoc) (FieldSpec, []string) {
	var errs []string
	spec := FieldSpec{
		Name:     fd.Name,
		Label:    fd.Label,
		DropDown: fd.DropDown,
	}

	if fd.Name == "" {
		errs = append(errs, "missing field name")
	}

	if fd.ValueCell == "" {
		errs = append(errs, "missing value_cell")
	} else if addr, err := cell.Parse(fd.ValueCell); err != nil {
		errs = append(errs, fmt.Sprintf("value_cell: %v", err))
	} else {
		spec.ValueCell = addr
	}

	if fd.LabelCell != "" || fd.Label != "" {
		spec.HasLabel = true
		if fd.LabelCell == "" {
			errs = append(errs, "label without label_cell")
		} else if addr, err := cell.Parse(fd.LabelCell); err != nil {
			errs = append(errs, fmt.Sprintf("label_cell: %v", err))
		} else {
			spec.LabelCell = addr
		}
	}

	vt := ValueType(fd.Type)
	if fd.Type == "" {
		errs = append(errs, "missing type")
	} else if !knownValueTypes[vt] {
		errs = append(errs, fmt.Sprintf("unknown type %q", fd.Type))
	} else {
		spec.Type = vt
	}

	return spec, errs
}

// Resolve returns the schema version for name, following at most one alias
// hop. Alias application emits one non-fatal warning before resolution.
// Fails schema_not_found when neither the name nor its alias resolves.
func (c *Catalog) Resolve(name string) (*Version, error) {
	if v, ok := c.versions[name]; ok {
		return v, nil
	}
	if current, ok := c.aliases[name]; ok {
		c.log.Warn("schema name resolved through alias",
			"requested", name,
			"resolved", current,
		)
		if v, ok := c.versions[current]; ok {
			return v, nil
		}
	}
	return nil, fault.New(fault.KindSchemaNotFound, "schema %q is not in the catalog and has no alias", name)
}

// Versions returns the loaded version ids, sorted.
func (c *Catalog) Versions() []string {
	ids := make([]string, 0, len(c.versions))
	for id := range c.versions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Aliases returns a copy of the alias table.
func (c *Catalog) Aliases() map[string]string {
	out := make(map[string]string, len(c.aliases))
	for k, v := range c.aliases {
		out[k] = v
	}
	return out
}
