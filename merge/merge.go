// Package merge repacks the pages of a PDF document side by side onto wider
// pages.
//
// Every source page is embedded as a form XObject and drawn onto its sheet
// with a translation only, so page content is copied without resampling.
package merge

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Options controls how documents are read and merged.
// A nil *Options is valid and selects the defaults.
type Options struct {
	// Password is used as user and owner password for encrypted documents.
	// If set, the output is written without encryption.
	Password string

	// Logf, if not nil, is called once for every output sheet.
	Logf func(format string, args ...any)
}

func (opt *Options) logf(format string, args ...any) {
	if opt == nil || opt.Logf == nil {
		return
	}
	opt.Logf(format, args...)
}

// Result is the outcome of a merge.
type Result struct {
	// PDF is the serialized output document.
	PDF []byte

	// Sheets describes the pages of the output document, in order.
	Sheets []Sheet
}

// Merge places the pages of the PDF document src side by side, n pages per
// output page.
func Merge(src []byte, n int, opt *Options) (*Result, error) {
	if n <= 0 {
		return nil, groupSizeError(n)
	}

	ctx, err := readContext(src, opt)
	if err != nil {
		return nil, err
	}

	pages, err := sourcePages(ctx)
	if err != nil {
		return nil, err
	}
	sizes := make([]Size, len(pages))
	for i, p := range pages {
		sizes[i] = p.size
	}
	sheets, err := Layout(sizes, n)
	if err != nil {
		return nil, err
	}

	pagesDict := types.Dict{
		"Type":  types.Name("Pages"),
		"Kids":  types.Array{},
		"Count": types.Integer(0),
	}
	pagesRef, err := ctx.IndRefForNewObject(pagesDict)
	if err != nil {
		return nil, err
	}

	kids := make(types.Array, 0, len(sheets))
	for _, sheet := range sheets {
		opt.logf("merging pages %s", pageList(sheet))

		pageRef, err := addSheet(ctx, pagesRef, pages, sheet)
		if err != nil {
			return nil, err
		}
		kids = append(kids, *pageRef)
	}
	pagesDict["Kids"] = kids
	pagesDict["Count"] = types.Integer(len(kids))

	if err := replacePageTree(ctx, pagesRef); err != nil {
		return nil, err
	}
	ctx.PageCount = len(kids)

	// Object streams need PDF 1.5.
	if ctx.XRefTable.Version() < model.V15 {
		v := model.V15
		ctx.HeaderVersion = &v
	}

	var out bytes.Buffer
	if err := pdfapi.WriteContext(ctx, &out); err != nil {
		return nil, err
	}

	return &Result{
		PDF:    out.Bytes(),
		Sheets: sheets,
	}, nil
}

// PageSizes returns the visible size of every page of a PDF document.
func PageSizes(src []byte, opt *Options) ([]Size, error) {
	ctx, err := readContext(src, opt)
	if err != nil {
		return nil, err
	}
	pages, err := sourcePages(ctx)
	if err != nil {
		return nil, err
	}
	sizes := make([]Size, len(pages))
	for i, p := range pages {
		sizes[i] = p.size
	}
	return sizes, nil
}

func newConfiguration(opt *Options) *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = true
	conf.WriteXRefStream = true
	if opt != nil && opt.Password != "" {
		conf.UserPW = opt.Password
		conf.OwnerPW = opt.Password
		conf.Cmd = model.DECRYPT
	}
	return conf
}

func readContext(src []byte, opt *Options) (*model.Context, error) {
	ctx, err := pdfapi.ReadContext(bytes.NewReader(src), newConfiguration(opt))
	if err != nil {
		return nil, parseError(err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, parseError(err)
	}

	// An empty page tree is legal input, but the validator rejects it.
	if ctx.PageCount == 0 {
		return ctx, nil
	}

	if err := pdfapi.ValidateContext(ctx); err != nil {
		return nil, parseError(err)
	}
	if err := pdfapi.OptimizeContext(ctx); err != nil {
		return nil, err
	}
	return ctx, nil
}

type sourcePage struct {
	dict   types.Dict
	res    types.Dict
	box    *types.Rectangle
	rotate int
	size   Size
}

func sourcePages(ctx *model.Context) ([]*sourcePage, error) {
	pages := make([]*sourcePage, 0, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		d, _, inh, err := ctx.PageDict(pageNr, true)
		if err != nil {
			return nil, parseError(err)
		}
		if d == nil || inh == nil {
			return nil, fmt.Errorf("%w: page %d not found", ErrParse, pageNr)
		}

		box := inh.CropBox
		if box == nil {
			box = inh.MediaBox
		}
		if box == nil {
			return nil, fmt.Errorf("%w: page %d has no MediaBox", ErrParse, pageNr)
		}

		res := inh.Resources
		if res == nil {
			if o, found := d.Find("Resources"); found {
				res, err = ctx.DereferenceDict(o)
				if err != nil {
					return nil, parseError(err)
				}
			}
		}

		rotate := normalizeRotation(inh.Rotate)
		size := Size{Width: box.Width(), Height: box.Height()}
		if rotate%180 != 0 {
			size.Width, size.Height = size.Height, size.Width
		}

		pages = append(pages, &sourcePage{
			dict:   d,
			res:    res,
			box:    box,
			rotate: rotate,
			size:   size,
		})
	}
	return pages, nil
}

func normalizeRotation(rot int) int {
	rot %= 360
	if rot < 0 {
		rot += 360
	}
	return rot
}

// embedPage turns a source page into a form XObject whose coordinate system
// has the lower left corner of the visible page at the origin.
func embedPage(ctx *model.Context, p *sourcePage, pageNr int) (*types.IndirectRef, error) {
	var content []byte
	if _, found := p.dict.Find("Contents"); found {
		var err error
		content, err = ctx.PageContent(p.dict, pageNr)
		if err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	buf.WriteString("q ")
	if p.rotate != 0 {
		m := rotationMatrix(p.rotate, p.box.Width(), p.box.Height())
		for _, x := range m {
			buf.WriteString(formatNumber(x))
			buf.WriteByte(' ')
		}
		buf.WriteString("cm\n")
	}
	fmt.Fprintf(&buf, "1 0 0 1 %s %s cm\n", formatNumber(-p.box.LL.X), formatNumber(-p.box.LL.Y))
	buf.Write(content)
	buf.WriteString("\nQ")

	sd, err := ctx.NewStreamDictForBuf(buf.Bytes())
	if err != nil {
		return nil, err
	}
	sd.Dict["Type"] = types.Name("XObject")
	sd.Dict["Subtype"] = types.Name("Form")
	sd.Dict["BBox"] = rectArray(p.size.Width, p.size.Height)
	if p.res != nil {
		sd.Dict["Resources"] = p.res
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}

	return ctx.IndRefForNewObject(*sd)
}

// rotationMatrix maps a w x h box with its lower left corner at the origin
// onto the same box turned clockwise by rot degrees, again with its lower
// left corner at the origin.
func rotationMatrix(rot int, w, h float64) [6]float64 {
	switch rot {
	case 90:
		return [6]float64{0, -1, 1, 0, 0, w}
	case 180:
		return [6]float64{-1, 0, 0, -1, w, h}
	case 270:
		return [6]float64{0, 1, -1, 0, h, 0}
	}
	return [6]float64{1, 0, 0, 1, 0, 0}
}

func addSheet(ctx *model.Context, parent *types.IndirectRef, pages []*sourcePage, sheet Sheet) (*types.IndirectRef, error) {
	xObjects := types.Dict{}

	var buf bytes.Buffer
	for k, pl := range sheet.Placements {
		formRef, err := embedPage(ctx, pages[pl.Page], pl.Page+1)
		if err != nil {
			return nil, err
		}
		name := "Fm" + strconv.Itoa(k)
		xObjects[name] = *formRef

		fmt.Fprintf(&buf, "q 1 0 0 1 %s %s cm /%s Do Q\n", formatNumber(pl.X), formatNumber(pl.Y), name)
	}

	sd, err := ctx.NewStreamDictForBuf(buf.Bytes())
	if err != nil {
		return nil, err
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	contentRef, err := ctx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, err
	}

	pageDict := types.Dict{
		"Type":      types.Name("Page"),
		"Parent":    *parent,
		"MediaBox":  rectArray(sheet.Width, sheet.Height),
		"Resources": types.Dict{"XObject": xObjects},
		"Contents":  *contentRef,
	}
	return ctx.IndRefForNewObject(pageDict)
}

// replacePageTree makes pagesRef the page tree of the document.  Catalog
// entries which point into the old page tree are dropped.
func replacePageTree(ctx *model.Context, pagesRef *types.IndirectRef) error {
	if ctx.Root == nil {
		return fmt.Errorf("%w: missing document catalog", ErrParse)
	}
	root, err := ctx.DereferenceDict(*ctx.Root)
	if err != nil {
		return parseError(err)
	}
	if root == nil {
		return fmt.Errorf("%w: missing document catalog", ErrParse)
	}

	for key := range root {
		switch key {
		case "Type", "Version":
		default:
			delete(root, key)
		}
	}
	root["Pages"] = *pagesRef
	return nil
}

func rectArray(width, height float64) types.Array {
	return types.Array{
		types.Integer(0),
		types.Integer(0),
		number(width),
		number(height),
	}
}

func number(x float64) types.Object {
	if x == math.Trunc(x) && math.Abs(x) < 1<<31 {
		return types.Integer(int(x))
	}
	return types.Float(x)
}

func formatNumber(x float64) string {
	if x == 0 {
		return "0"
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func pageList(sheet Sheet) string {
	nums := make([]string, len(sheet.Placements))
	for i, pl := range sheet.Placements {
		nums[i] = strconv.Itoa(pl.Page + 1)
	}
	return strings.Join(nums, ",")
}
