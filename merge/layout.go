package merge

// Size is the visible size of a page, in PDF units.
type Size struct {
	Width  float64
	Height float64
}

// Placement records where one source page is drawn on a sheet.
// X and Y give the lower left corner of the page on the sheet.
type Placement struct {
	Page   int // 0-based index into the source document
	X, Y   float64
	Width  float64
	Height float64
}

// Sheet is one page of the output document.
type Sheet struct {
	Width      float64
	Height     float64
	Placements []Placement
}

// Groups partitions the page indices [0, pageCount) into consecutive runs of
// n pages.  The last run may be shorter.
func Groups(pageCount, n int) ([][]int, error) {
	if n <= 0 {
		return nil, groupSizeError(n)
	}

	var groups [][]int
	for i := 0; i < pageCount; i += n {
		end := min(i+n, pageCount)
		group := make([]int, 0, end-i)
		for j := i; j < end; j++ {
			group = append(group, j)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// Layout computes the output sheets for pages of the given sizes.
// Each sheet is as wide as its pages together and as high as the highest of
// them.  Pages are placed left to right and aligned at the top edge; shorter
// pages leave empty space below.
func Layout(sizes []Size, n int) ([]Sheet, error) {
	groups, err := Groups(len(sizes), n)
	if err != nil {
		return nil, err
	}

	sheets := make([]Sheet, 0, len(groups))
	for _, group := range groups {
		var sheet Sheet
		for _, idx := range group {
			sheet.Width += sizes[idx].Width
			sheet.Height = max(sheet.Height, sizes[idx].Height)
		}

		x := 0.0
		for _, idx := range group {
			sz := sizes[idx]
			sheet.Placements = append(sheet.Placements, Placement{
				Page:   idx,
				X:      x,
				Y:      sheet.Height - sz.Height,
				Width:  sz.Width,
				Height: sz.Height,
			})
			x += sz.Width
		}
		sheets = append(sheets, sheet)
	}
	return sheets, nil
}
