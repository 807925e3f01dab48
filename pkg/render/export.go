// Package render exports orthographic PNG views of a design document.
package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/hullform/pkg/ctxlog"
	"github.com/chazu/hullform/pkg/document"
	"github.com/chazu/hullform/pkg/graph"
	"github.com/chazu/hullform/pkg/tessellate"
	"github.com/llgcode/draw2d/draw2dimg"
)

// ErrInputNotFound is returned when the document to render does not exist.
var ErrInputNotFound = errors.New("render: input file not found")

// OutputName is the file written for view v of the document basename base.
func OutputName(base string, v View) string {
	return fmt.Sprintf("%s_%s.png", base, v.Name)
}

// Export opens the document at docPath, shows every object and writes one
// PNG per entry of Views into outDir. It returns the written paths in view
// order. The document is closed on every path.
func Export(ctx context.Context, docPath, outDir string) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	if _, err := os.Stat(docPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, docPath)
		}
		return nil, fmt.Errorf("render: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	logger.Info(fmt.Sprintf("Opening %s...", docPath))
	doc, err := document.Open(docPath)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	defer doc.Close()

	showAll(ctx, doc.Graph)

	meshes, err := tessellate.Facets(doc.Graph)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if len(meshes) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoView, docPath)
	}

	base := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))
	written := make([]string, 0, len(Views))
	for _, v := range Views {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		logger.Info(fmt.Sprintf("Exporting %s view...", v.Name))

		img, err := Draw(meshes, v, Width, Height)
		if err != nil {
			return written, fmt.Errorf("render: %s view: %w", v.Name, err)
		}
		out := filepath.Join(outDir, OutputName(base, v))
		if err := draw2dimg.SaveToPngFile(out, img); err != nil {
			return written, fmt.Errorf("render: %s view: %w", v.Name, err)
		}
		logger.Info(fmt.Sprintf("  Saved: %s", out))
		written = append(written, out)
	}

	logger.Info(fmt.Sprintf("Exported %d views from %s", len(written), docPath))
	return written, nil
}

// showAll makes every object visible except origins. Objects that cannot
// be shown are skipped.
func showAll(ctx context.Context, g *graph.DesignGraph) {
	logger := ctxlog.FromContext(ctx)
	for _, n := range g.Sorted() {
		if strings.Contains(n.Name, "Origin") {
			continue
		}
		if err := g.SetVisible(n.ID, true); err != nil {
			logger.Debug("cannot show object", "node", n.Name, "error", err)
		}
	}
}
