/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package pdf renders vouchers as an A4 document, one page per voucher, with a QR code of the
// redemption URL above the password.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/voucherkit/voucherkit/pkg/render"
)

var logger = log.New("voucherkit/pkg/render/pdf")

const (
	pageWidth  = 210.0
	qrSizeMM   = 90.0
	qrSizePx   = 512
	marginTop  = 30.0
	lineHeight = 10.0
	fontFamily = "Helvetica"
)

// Renderer produces PDF vouchers.
type Renderer struct {
	title       string
	compression bool
}

// Opt configures a Renderer.
type Opt func(r *Renderer)

// WithTitle sets the heading printed on every page and the document title.
func WithTitle(title string) Opt {
	return func(r *Renderer) {
		r.title = title
	}
}

// WithCompression toggles stream compression.
func WithCompression(enabled bool) Opt {
	return func(r *Renderer) {
		r.compression = enabled
	}
}

// New returns a PDF Renderer.
func New(opts ...Opt) *Renderer {
	r := &Renderer{title: "Voucher", compression: true}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Render writes one page per voucher to w.
func (r *Renderer) Render(w io.Writer, vouchers []render.Voucher) error {
	if len(vouchers) == 0 {
		return errors.New("pdf: nothing to render")
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetCompression(r.compression)
	doc.SetTitle(r.title, true)
	doc.SetCreator("voucherkit", true)

	tr := doc.UnicodeTranslatorFromDescriptor("")

	for i, v := range vouchers {
		if v.URL == "" {
			return fmt.Errorf("pdf: voucher %d has no redemption url", i)
		}

		png, err := qrcode.Encode(v.URL, qrcode.Medium, qrSizePx)
		if err != nil {
			return fmt.Errorf("pdf: qr code for voucher %d: %w", i, err)
		}

		name := "qr-" + v.OTC.String()
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))

		doc.AddPage()

		doc.SetFont(fontFamily, "B", 24) //nolint:gomnd
		doc.SetY(marginTop)
		doc.CellFormat(0, lineHeight*1.5, tr(r.title), "", 1, "C", false, 0, "")

		if v.Aim != "" {
			doc.SetFont(fontFamily, "", 14) //nolint:gomnd
			doc.CellFormat(0, lineHeight, tr(v.Aim), "", 1, "C", false, 0, "")
		}

		y := doc.GetY() + lineHeight
		doc.ImageOptions(name, (pageWidth-qrSizeMM)/2, y, qrSizeMM, qrSizeMM, false, opts, 0, v.URL)
		doc.SetY(y + qrSizeMM + lineHeight)

		doc.SetFont(fontFamily, "", 9) //nolint:gomnd
		doc.CellFormat(0, lineHeight/2, v.URL, "", 1, "C", false, 0, v.URL)

		doc.Ln(lineHeight)
		doc.SetFont(fontFamily, "B", 18) //nolint:gomnd
		doc.CellFormat(0, lineHeight, tr("Password: "+v.Password), "", 1, "C", false, 0, "")

		doc.SetFont(fontFamily, "", 10) //nolint:gomnd
		doc.CellFormat(0, lineHeight, "Code "+v.OTC.String(), "", 1, "C", false, 0, "")
	}

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("pdf: write document: %w", err)
	}

	logger.Debugf("rendered %d vouchers", len(vouchers))

	return nil
}
