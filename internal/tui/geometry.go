package tui

// listShare is the percentage of the width given to the result list.
const listShare = 40

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionPreview
)

// geometry lays out the input row, the two bordered panels and the status bar.
type geometry struct {
	width  int
	height int
}

func (g geometry) listWidth() int {
	if g.width <= 0 {
		return 40
	}
	return max(g.width*listShare/100-4, 20)
}

func (g geometry) previewWidth() int {
	if g.width <= 0 {
		return 60
	}
	return max(g.width*(100-listShare)/100-4, 20)
}

// panelHeight leaves room for the input row, the status bar and borders.
func (g geometry) panelHeight() int {
	if g.height <= 0 {
		return 20
	}
	return max(g.height-6, 5)
}

func (g geometry) visibleItems() int {
	return max(g.panelHeight()/linesPerItem, 1)
}

// hitTest maps a terminal cell to a panel and the row inside it.
func (g geometry) hitTest(x, y int) (mouseRegion, int) {
	const top = 2 // input row + top border
	row := y - top
	if row < 0 || row >= g.panelHeight() {
		return regionNone, -1
	}

	lw := g.listWidth()
	switch {
	case x >= 1 && x <= lw:
		return regionList, row
	case x > lw+2:
		return regionPreview, row
	}
	return regionNone, -1
}
