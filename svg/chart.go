// Package svg renders the listing price chart as an SVG document built
// with etree.
package svg

import (
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/beevik/etree"
	"github.com/fwojciec/realty"
)

// Colors of the price series and the mean reference line.
const (
	PriceColor = "#1f77b4"
	MeanColor  = "#d62728"
)

// Chart geometry in pixels.
const (
	marginLeft   = 120
	marginRight  = 40
	marginTop    = 70
	marginBottom = 80
	plotPadding  = 20
	statsFont    = 12
	statsCharW   = 7.3 // approximate monospace advance at statsFont
	statsLineH   = 17
)

// Ensure ChartRenderer implements realty.ChartRenderer at compile time.
var _ realty.ChartRenderer = (*ChartRenderer)(nil)

// ChartRenderer draws listing prices sorted ascending as a line with
// markers, a dashed mean price line, a legend and a summary text box.
type ChartRenderer struct {
	Width  int
	Height int
}

// NewChartRenderer creates a ChartRenderer producing 1200x700 charts.
func NewChartRenderer() *ChartRenderer {
	return &ChartRenderer{Width: 1200, Height: 700}
}

// Extension implements realty.ChartRenderer.
func (r *ChartRenderer) Extension() string {
	return "svg"
}

// RenderChart implements realty.ChartRenderer. Listings whose price does
// not parse are left out of the chart. Returns EINVALID if no listing has
// a price. A nil summary is computed from listings.
func (r *ChartRenderer) RenderChart(w io.Writer, listings []*realty.Listing, summary *realty.Summary) error {
	var prices []float64
	for _, l := range listings {
		if l.Price == nil {
			continue
		}
		if v, ok := realty.ParseNumber(*l.Price); ok {
			prices = append(prices, v)
		}
	}
	if len(prices) == 0 {
		return realty.Errorf(realty.EINVALID, "no priced listings to plot")
	}
	slices.Sort(prices)

	if summary == nil {
		area := ""
		if len(listings) > 0 {
			area = listings[0].Area
		}
		summary = realty.Summarize(area, listings)
	}

	doc := r.build(prices, summary)
	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}

// plot maps data coordinates to pixels.
type plot struct {
	left, top, width, height float64
	n                        int
	yMin, yMax               float64
}

func (p plot) x(i int) float64 {
	if p.n == 1 {
		return p.left + p.width/2
	}
	inner := p.width - 2*plotPadding
	return p.left + plotPadding + float64(i)*inner/float64(p.n-1)
}

func (p plot) y(v float64) float64 {
	return p.top + p.height - (v-p.yMin)/(p.yMax-p.yMin)*p.height
}

func (r *ChartRenderer) build(prices []float64, summary *realty.Summary) *etree.Document {
	text := summary.Format()
	width, height := float64(r.Width), float64(r.Height)

	lo := min(prices[0], summary.MeanPrice)
	hi := max(prices[len(prices)-1], summary.MeanPrice)
	ticks := niceTicks(lo, hi, 6)

	p := plot{
		left:   marginLeft,
		top:    marginTop,
		width:  width - marginLeft - marginRight,
		height: height - marginTop - marginBottom,
		n:      len(prices),
		yMin:   ticks[0],
		yMax:   ticks[len(ticks)-1],
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	svg := doc.CreateElement("svg")
	svg.CreateAttr("xmlns", "http://www.w3.org/2000/svg")
	svg.CreateAttr("width", strconv.Itoa(r.Width))
	svg.CreateAttr("height", strconv.Itoa(r.Height))
	svg.CreateAttr("viewBox", "0 0 "+strconv.Itoa(r.Width)+" "+strconv.Itoa(r.Height))
	svg.CreateAttr("font-family", "DejaVu Sans, Arial, sans-serif")

	rect(svg, 0, 0, width, height, "fill", "white")

	title := label(svg, width/2, 40, "Real Estate Listing Prices in "+capitalize(summary.Area), "middle", 20)
	title.CreateAttr("class", "title")
	title.CreateAttr("font-weight", "bold")

	// Grid and ticks.
	grid := svg.CreateElement("g")
	grid.CreateAttr("class", "grid")
	for _, v := range ticks {
		y := p.y(v)
		line(grid, p.left, y, p.left+p.width, y, "#b0b0b0", 0.7, "1,3")
		label(grid, p.left-8, y+4, realty.FormatWholePrice(v), "end", 11)
	}
	for _, i := range indexTicks(p.n) {
		x := p.x(i)
		line(grid, x, p.top, x, p.top+p.height, "#b0b0b0", 0.7, "1,3")
		label(grid, x, p.top+p.height+18, strconv.Itoa(i), "middle", 11)
	}

	frame := rect(svg, p.left, p.top, p.width, p.height, "fill", "none")
	frame.CreateAttr("stroke", "black")

	// Price series.
	points := make([]string, len(prices))
	for i, v := range prices {
		points[i] = num(p.x(i)) + "," + num(p.y(v))
	}
	series := svg.CreateElement("polyline")
	series.CreateAttr("class", "prices")
	series.CreateAttr("points", strings.Join(points, " "))
	series.CreateAttr("fill", "none")
	series.CreateAttr("stroke", PriceColor)
	series.CreateAttr("stroke-width", "1.5")

	markers := svg.CreateElement("g")
	markers.CreateAttr("class", "listings")
	for i, v := range prices {
		c := markers.CreateElement("circle")
		c.CreateAttr("class", "listing")
		c.CreateAttr("cx", num(p.x(i)))
		c.CreateAttr("cy", num(p.y(v)))
		c.CreateAttr("r", "4")
		c.CreateAttr("fill", PriceColor)
		c.CreateElement("title").SetText(realty.FormatWholePrice(v))
	}

	mean := line(svg, p.left, p.y(summary.MeanPrice), p.left+p.width, p.y(summary.MeanPrice), MeanColor, 2, "8,5")
	mean.CreateAttr("class", "mean")

	// Axis labels.
	xlabel := label(svg, p.left+p.width/2, height-25,
		"Listing Index (Sorted by Price from Lowest to Highest, N="+strconv.Itoa(len(prices))+")", "middle", 13)
	xlabel.CreateAttr("class", "xlabel")
	ylabel := label(svg, 0, 0, "Price (USD)", "middle", 13)
	ylabel.CreateAttr("class", "ylabel")
	ylabel.CreateAttr("transform", "translate(22,"+num(p.top+p.height/2)+") rotate(-90)")

	r.legend(svg, p, "Average Price ("+text.MeanPrice+")")
	r.stats(svg, p, append([]string{"--- Summary Statistics ---"}, text.Lines()...))

	return doc
}

// legend draws the series legend in the upper left of the plot.
func (r *ChartRenderer) legend(parent *etree.Element, p plot, meanLabel string) {
	g := parent.CreateElement("g")
	g.CreateAttr("class", "legend")

	entries := []string{"Individual Listing Price", meanLabel}
	longest := 0
	for _, e := range entries {
		longest = max(longest, utf8.RuneCountInString(e))
	}
	x, y := p.left+10, p.top+10
	box := rect(g, x, y, 50+float64(longest)*6.5, 48, "fill", "white")
	box.CreateAttr("stroke", "#cccccc")
	box.CreateAttr("rx", "4")

	line(g, x+8, y+16, x+36, y+16, PriceColor, 1.5, "")
	marker := g.CreateElement("circle")
	marker.CreateAttr("cx", num(x+22))
	marker.CreateAttr("cy", num(y+16))
	marker.CreateAttr("r", "4")
	marker.CreateAttr("fill", PriceColor)
	label(g, x+44, y+20, entries[0], "start", 11)

	line(g, x+8, y+36, x+36, y+36, MeanColor, 2, "8,5")
	label(g, x+44, y+40, entries[1], "start", 11)
}

// stats draws the monospace summary box in the upper right of the plot.
func (r *ChartRenderer) stats(parent *etree.Element, p plot, lines []string) {
	g := parent.CreateElement("g")
	g.CreateAttr("class", "stats")

	longest := 0
	for _, l := range lines {
		longest = max(longest, utf8.RuneCountInString(l))
	}
	boxW := float64(longest)*statsCharW + 24
	boxH := float64(len(lines))*statsLineH + 16
	x := p.left + p.width - 10 - boxW
	y := p.top + 10

	box := rect(g, x, y, boxW, boxH, "fill", "white")
	box.CreateAttr("fill-opacity", "0.9")
	box.CreateAttr("stroke", "gray")
	box.CreateAttr("stroke-width", "0.5")
	box.CreateAttr("rx", "6")

	t := g.CreateElement("text")
	t.CreateAttr("font-family", "monospace")
	t.CreateAttr("font-size", strconv.Itoa(statsFont))
	t.CreateAttr("xml:space", "preserve")
	for i, l := range lines {
		span := t.CreateElement("tspan")
		span.CreateAttr("x", num(x+12))
		span.CreateAttr("y", num(y+8+float64(i+1)*statsLineH-4))
		span.SetText(l)
	}
}

func rect(parent *etree.Element, x, y, w, h float64, attrs ...string) *etree.Element {
	el := parent.CreateElement("rect")
	el.CreateAttr("x", num(x))
	el.CreateAttr("y", num(y))
	el.CreateAttr("width", num(w))
	el.CreateAttr("height", num(h))
	for i := 0; i+1 < len(attrs); i += 2 {
		el.CreateAttr(attrs[i], attrs[i+1])
	}
	return el
}

func line(parent *etree.Element, x1, y1, x2, y2 float64, stroke string, width float64, dash string) *etree.Element {
	el := parent.CreateElement("line")
	el.CreateAttr("x1", num(x1))
	el.CreateAttr("y1", num(y1))
	el.CreateAttr("x2", num(x2))
	el.CreateAttr("y2", num(y2))
	el.CreateAttr("stroke", stroke)
	el.CreateAttr("stroke-width", num(width))
	if dash != "" {
		el.CreateAttr("stroke-dasharray", dash)
	}
	return el
}

func label(parent *etree.Element, x, y float64, s, anchor string, size int) *etree.Element {
	el := parent.CreateElement("text")
	el.CreateAttr("x", num(x))
	el.CreateAttr("y", num(y))
	el.CreateAttr("text-anchor", anchor)
	el.CreateAttr("font-size", strconv.Itoa(size))
	el.SetText(s)
	return el
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// capitalize uppercases the first letter and lowercases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// niceTicks returns about n evenly spaced round values covering [lo, hi].
func niceTicks(lo, hi float64, n int) []float64 {
	if hi <= lo {
		pad := math.Max(math.Abs(lo)*0.1, 1)
		lo, hi = lo-pad, hi+pad
	}
	step := niceStep((hi - lo) / float64(n-1))
	start := math.Floor(lo/step) * step
	end := math.Ceil(hi/step) * step

	var ticks []float64
	for i := 0; ; i++ {
		v := start + float64(i)*step
		if v > end+step/2 {
			break
		}
		ticks = append(ticks, v)
	}
	return ticks
}

// niceStep rounds a raw step to 1, 2, 5 or 10 times a power of ten.
func niceStep(raw float64) float64 {
	exp := math.Floor(math.Log10(raw))
	base := math.Pow(10, exp)
	switch f := raw / base; {
	case f <= 1:
		return base
	case f <= 2:
		return 2 * base
	case f <= 5:
		return 5 * base
	default:
		return 10 * base
	}
}

// indexTicks returns listing indexes to label on the x axis.
func indexTicks(n int) []int {
	if n <= 1 {
		return []int{0}
	}
	step := int(math.Max(1, niceStep(float64(n-1)/8)))
	var ticks []int
	for i := 0; i < n; i += step {
		ticks = append(ticks, i)
	}
	return ticks
}
