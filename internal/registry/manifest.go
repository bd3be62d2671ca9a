package registry

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/bootloader/internal/ctxlog"
	"github.com/specialistvlad/bootloader/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ManifestName is the file name LoadDir looks for.
const ManifestName = "package.hcl"

var manifestSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "package", LabelNames: []string{"name"}},
	},
}

var packageSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "title"},
		{Name: "namespace_separator"},
		{Name: "meta"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "loader"},
	},
}

// loaderSettings mirrors the optional `loader` block of a package.
type loaderSettings struct {
	SourceDirectory string            `hcl:"source_directory,optional"`
	Extension       string            `hcl:"extension,optional"`
	AutoInit        *bool             `hcl:"auto_init,optional"`
	Dependencies    []string          `hcl:"dependencies,optional"`
	Includes        []string          `hcl:"includes,optional"`
	StaticIncludes  []string          `hcl:"static_includes,optional"`
	CoreClasses     map[string]string `hcl:"core_classes,optional"`
}

// LoadDir parses every package manifest under root into a new Store.
func LoadDir(ctx context.Context, root string) (*Store, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Registry loading package manifests...", "path", root)

	files, err := fsutil.FindFilesByName(root, ManifestName)
	if err != nil {
		logger.Error("Failed to walk packages directory", "path", root, "error", err)
		return nil, err
	}

	store := New()
	if len(files) == 0 {
		logger.Warn("No package manifests found in path", "path", root)
		return store, nil
	}

	parser := hclparse.NewParser()
	for _, path := range files {
		file, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse package manifest %s: %w", path, diags)
		}

		pkgs, diags := ParseManifest(file, filepath.Dir(path))
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid package manifest %s: %w", path, diags)
		}
		for _, p := range pkgs {
			if err := store.Add(p); err != nil {
				return nil, fmt.Errorf("register package from %s: %w", path, err)
			}
		}
		logger.Debug("Loaded package manifest.", "file", path, "packages", len(pkgs))
	}

	logger.Info("Package registry loaded.", "packages", len(store.packages))
	return store, nil
}

// ParseManifest decodes the package blocks of a manifest whose directory is root.
func ParseManifest(file *hcl.File, root string) ([]*Package, hcl.Diagnostics) {
	var allDiags hcl.Diagnostics
	if file == nil {
		return nil, append(allDiags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "HCL file is nil",
		})
	}

	content, diags := file.Body.Content(manifestSchema)
	allDiags = append(allDiags, diags...)
	if diags.HasErrors() {
		return nil, allDiags
	}

	pkgs := make([]*Package, 0, len(content.Blocks))
	for _, block := range content.Blocks {
		p, diags := decodePackage(block, root)
		allDiags = append(allDiags, diags...)
		if p != nil {
			pkgs = append(pkgs, p)
		}
	}

	if allDiags.HasErrors() {
		return nil, allDiags
	}
	return pkgs, allDiags
}

func decodePackage(block *hcl.Block, root string) (*Package, hcl.Diagnostics) {
	body, diags := block.Body.Content(packageSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	p := &Package{
		Name: block.Labels[0],
		Root: root,
		Meta: map[string]string{},
	}

	if attr, ok := body.Attributes["title"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &p.Title)...)
	}
	if attr, ok := body.Attributes["namespace_separator"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &p.Settings.NamespaceSeparator)...)
	}
	if attr, ok := body.Attributes["meta"]; ok {
		meta, metaDiags := decodeMeta(attr)
		diags = append(diags, metaDiags...)
		p.Meta = meta
	}

	loaderBlock, uniqueDiags := findUniqueBlock(body.Blocks, "loader")
	diags = append(diags, uniqueDiags...)

	// Without loading settings a package initializes itself; declaring them
	// makes initialization opt-in.
	p.Settings.AutoInit = loaderBlock == nil
	if loaderBlock != nil {
		var ls loaderSettings
		diags = append(diags, gohcl.DecodeBody(loaderBlock.Body, nil, &ls)...)
		p.Settings.SourceDirectory = ls.SourceDirectory
		p.Settings.Extension = ls.Extension
		p.Settings.Dependencies = ls.Dependencies
		p.Settings.Includes = ls.Includes
		p.Settings.StaticIncludes = ls.StaticIncludes
		p.Settings.CoreClasses = ls.CoreClasses
		if ls.AutoInit != nil {
			p.Settings.AutoInit = *ls.AutoInit
		}
	}

	return p, diags
}

func decodeMeta(attr *hcl.Attribute) (map[string]string, hcl.Diagnostics) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() || val.IsNull() {
		return map[string]string{}, diags
	}

	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid meta attribute",
			Detail:   fmt.Sprintf("meta must be an object of strings, got %s.", ty.FriendlyName()),
			Subject:  attr.Expr.Range().Ptr(),
		})
	}

	meta := make(map[string]string, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		sv, err := convert.Convert(v, cty.String)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid meta value",
				Detail:   fmt.Sprintf("meta.%s: %s.", k.AsString(), err),
				Subject:  attr.Expr.Range().Ptr(),
			})
			continue
		}
		if sv.IsNull() {
			continue
		}
		meta[k.AsString()] = sv.AsString()
	}
	return meta, diags
}

// findUniqueBlock returns the single block of type name, with an error
// diagnostic for every duplicate. It returns nil when no block matches.
func findUniqueBlock(blocks hcl.Blocks, name string) (*hcl.Block, hcl.Diagnostics) {
	var found *hcl.Block
	var diags hcl.Diagnostics

	for _, block := range blocks {
		if block.Type != name {
			continue
		}
		if found != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate \"" + name + "\" block",
				Detail:   "Only one \"" + name + "\" block is allowed.",
				Subject:  &block.DefRange,
			})
			continue
		}
		found = block
	}

	return found, diags
}
