package extract

// links.go — URI link annotations from the first page.
//
// Design-tool exports often carry a profile link only as a clickable
// annotation with no glyphs behind it, so reconstructed text alone would lose
// it. The annotation tree is read with pdfcpu, independently of the text
// reader.

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var disableConfigDir sync.Once

// pdfcpuConfig returns a relaxed configuration that never touches the
// user's pdfcpu config directory.
func pdfcpuConfig() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// readContext opens data with pdfcpu and resolves the page count.
func readContext(data []byte) (*model.Context, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), pdfcpuConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: pdfcpu read: %v", errUnreadable, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: pdfcpu page count: %v", errUnreadable, err)
	}
	return ctx, nil
}

// harvestLinks returns the URIs of first-page link annotations in the order
// they appear in the page's Annots array. Annotations that are not URI
// actions, or that cannot be resolved, are skipped.
func harvestLinks(data []byte) ([]string, error) {
	ctx, err := readContext(data)
	if err != nil {
		return nil, err
	}
	if ctx.PageCount < 1 {
		return nil, nil
	}
	page, _, _, err := ctx.PageDict(1, false)
	if err != nil {
		return nil, fmt.Errorf("page 1: %w", err)
	}
	if page == nil {
		return nil, nil
	}
	annots, err := ctx.DereferenceArray(page["Annots"])
	if err != nil {
		return nil, fmt.Errorf("page 1 annots: %w", err)
	}

	var uris []string
	for _, obj := range annots {
		annot, err := ctx.DereferenceDict(obj)
		if err != nil || annot == nil {
			continue
		}
		action, err := ctx.DereferenceDict(annot["A"])
		if err != nil || action == nil {
			continue
		}
		if s := action.NameEntry("S"); s == nil || *s != "URI" {
			continue
		}
		if uri := pdfString(ctx, action["URI"]); uri != "" {
			uris = append(uris, uri)
		}
	}
	return uris, nil
}

// pdfString resolves obj to a text string, empty when it is not a string.
func pdfString(ctx *model.Context, obj types.Object) string {
	o, err := ctx.Dereference(obj)
	if err != nil {
		return ""
	}
	var s string
	switch v := o.(type) {
	case types.StringLiteral:
		s, err = types.StringLiteralToString(v)
	case types.HexLiteral:
		s, err = types.HexLiteralToString(v)
	default:
		return ""
	}
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// appendLinks adds each URI as a trailing line unless a line of text already
// shows it. Lines and URIs are compared in link form, the way Normalize will
// print them, so a visible link split by a stray space still counts.
func appendLinks(text string, uris []string) (string, []string) {
	shown := make(map[string]bool)
	for _, ln := range strings.Split(text, "\n") {
		shown[linkKey(ln)] = true
	}
	var added []string
	for _, uri := range uris {
		key := linkKey(uri)
		if key == "" || shown[key] {
			continue
		}
		shown[key] = true
		text += "\n" + uri
		added = append(added, uri)
	}
	return text, added
}

// linkKey is s without whitespace and with an http or https scheme spelled
// "https://".
func linkKey(s string) string {
	return reSchemePrefix.ReplaceAllString(reAnySpace.ReplaceAllString(s, ""), "https://")
}
