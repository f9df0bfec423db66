package docpdf

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"codeberg.org/go-pdf/fpdf"
	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"go.uber.org/zap"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/lvillar/docpdf/schema"
	"github.com/lvillar/docpdf/style"
)

// AssetResolver supplies the bytes behind the asset ids referenced by
// image nodes. Implementations must be safe to call repeatedly.
// Returning ErrAssetNotFound skips the image; any other error aborts
// the document being rendered.
type AssetResolver interface {
	Resolve(assetID string) (data []byte, mimeType string, err error)
}

// AssetResolverFunc adapts a function to the AssetResolver interface.
type AssetResolverFunc func(assetID string) ([]byte, string, error)

// Resolve implements AssetResolver.
func (f AssetResolverFunc) Resolve(assetID string) ([]byte, string, error) {
	return f(assetID)
}

// AssetMap is an in-memory AssetResolver keyed by asset id.
type AssetMap map[string][]byte

// Resolve implements AssetResolver.
func (m AssetMap) Resolve(assetID string) ([]byte, string, error) {
	data, ok := m[assetID]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrAssetNotFound, assetID)
	}
	return data, "", nil
}

// Pixel budget factor: bitmaps are capped near 300dpi of the placed
// width so oversized sources do not bloat the output.
const assetDPI = 300.0

// prepareImage sniffs asset bytes and returns them in a form the
// engine embeds natively. PNG, JPEG, and GIF within the pixel budget
// pass through untouched; everything else that decodes (WebP, TIFF,
// oversized bitmaps) is re-encoded to PNG, downscaled to maxWidthPx
// when wider.
func prepareImage(data []byte, maxWidthPx int) (string, []byte, error) {
	if t, err := filetype.Match(data); err == nil {
		switch t.Extension {
		case "png", "jpg", "gif":
			cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
			if err == nil && cfg.Width <= maxWidthPx {
				return t.Extension, data, nil
			}
		}
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("docpdf: decoding image: %w", err)
	}
	if img.Bounds().Dx() > maxWidthPx {
		img = imaging.Fit(img, maxWidthPx, 4*maxWidthPx, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", nil, fmt.Errorf("docpdf: encoding image: %w", err)
	}
	return "png", buf.Bytes(), nil
}

// renderImage places an image node into the flow. Sizing: explicit
// width and height apply directly, a single dimension derives the
// other from the intrinsic aspect ratio, and with neither the image
// scales to the available content width.
func (r *renderer) renderImage(n *schema.Node, ctx renderContext, st *style.Computed) error {
	id, _ := n.Prop("assetId").Str()
	if id == "" {
		r.log.Debug("image node without assetId", zap.String("node", string(n.ID)))
		return nil
	}
	if r.assets == nil {
		r.log.Warn("image node with no asset resolver configured",
			zap.String("asset", id))
		return nil
	}

	data, _, err := r.assets.Resolve(id)
	if errors.Is(err, ErrAssetNotFound) {
		r.log.Warn("asset not found, skipping image", zap.String("asset", id))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: asset %q: %v", ErrAssetResolver, id, err)
	}

	pageW, _ := r.pdf.GetPageSize()
	lm, _, rm, _ := r.pdf.GetMargins()
	contentW := pageW - lm - rm

	typ, prepared, err := prepareImage(data, int(contentW/72.0*assetDPI))
	if err != nil {
		r.log.Warn("undecodable asset, skipping image",
			zap.String("asset", id), zap.Error(err))
		return nil
	}

	opt := fpdf.ImageOptions{ImageType: typ}
	info := r.pdf.RegisterImageOptionsReader("asset-"+id, opt, bytes.NewReader(prepared))
	if info == nil {
		return nil
	}

	w, h := placedImageSize(st, contentW, info.Width(), info.Height())
	if st.Margin.Top > 0 {
		r.pdf.Ln(st.Margin.Top)
	}
	r.pdf.ImageOptions("asset-"+id, r.pdf.GetX(), 0, w, h, true, opt, 0, "")
	if st.Margin.Bottom > 0 {
		r.pdf.Ln(st.Margin.Bottom)
	}
	return nil
}

// placedImageSize resolves the display size in points from style
// dimensions and the intrinsic size.
func placedImageSize(st *style.Computed, contentW, iw, ih float64) (w, h float64) {
	ratio := 1.0
	if iw > 0 && ih > 0 {
		ratio = ih / iw
	}
	switch {
	case st.Width != nil && st.Height != nil:
		return st.Width.Pt(contentW), st.Height.Pt(contentW)
	case st.Width != nil:
		w = st.Width.Pt(contentW)
		return w, w * ratio
	case st.Height != nil:
		h = st.Height.Pt(contentW)
		if ratio == 0 {
			return h, h
		}
		return h / ratio, h
	default:
		return contentW, contentW * ratio
	}
}
