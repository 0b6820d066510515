// Package export renders a dataset's dependency levels to a static image.
// The SVG and PNG renderers share one layout: one column per level, level 0
// (nothing blocking) leftmost, and within a column issues follow the attack
// order rank. Edges run from a dependent back to the dependency it waits on.
package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/strandview/strand/pkg/analysis"
	"github.com/strandview/strand/pkg/dataset"
	"github.com/strandview/strand/pkg/graph"
	"github.com/strandview/strand/pkg/model"
)

// SnapshotOptions controls snapshot rendering.
type SnapshotOptions struct {
	Path   string // output path; format inferred from extension when Format empty
	Format string // "svg" or "png" (case-insensitive)
	Title  string // rendered in the summary block; defaults to "Dependency Graph"
	Preset string // layout preset: "compact" (default) or "roomy"
}

// SaveSnapshot renders the dataset's dependency levels to opts.Path. Stats
// may be nil, in which case the analysis runs here. The visual language is
// kept minimal so the output stays readable without auxiliary docs.
func SaveSnapshot(ds *dataset.Dataset, stats *analysis.Stats, opts SnapshotOptions) error {
	if ds == nil || ds.IsEmpty() {
		return fmt.Errorf("no issues to export")
	}
	if stats == nil {
		stats = analysis.Analyze(ds)
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg"
			if opts.Path != "" && filepath.Ext(opts.Path) == "" {
				opts.Path += ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}

	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create parent dir: %w", err)
		}
	}

	lay := buildLayout(ds, stats, opts)

	switch format {
	case "png":
		return renderPNG(opts.Path, lay)
	default:
		return renderSVGFile(opts.Path, lay)
	}
}

// --- layout computation ----------------------------------------------------

type layoutNode struct {
	ID          string
	Title       string
	Status      model.Status // effective status decides the fill color
	Rank        int
	Criticality float64
	X, Y        float64
	W, H        float64
}

type layoutEdge struct {
	From string // dependent
	To   string // dependency it waits on
}

type layoutResult struct {
	Nodes   []layoutNode
	Edges   []layoutEdge
	Width   int
	Height  int
	Header  float64
	Summary summaryInfo
}

type summaryInfo struct {
	Title        string
	Hash         string
	NodeCount    int
	EdgeCount    int
	CycleCount   int
	MostCritical string
}

func buildLayout(ds *dataset.Dataset, stats *analysis.Stats, opts SnapshotOptions) layoutResult {
	const (
		nodeWCompact  = 170.0
		nodeHCompact  = 70.0
		nodeWRoomy    = 190.0
		nodeHRoomy    = 82.0
		colGapCompact = 80.0
		rowGapCompact = 40.0
		colGapRoomy   = 110.0
		rowGapRoomy   = 55.0
		padding       = 36.0
		headerHeight  = 120.0
	)

	nodeW, nodeH := nodeWCompact, nodeHCompact
	colGap, rowGap := colGapCompact, rowGapCompact
	if strings.EqualFold(opts.Preset, "roomy") {
		nodeW, nodeH = nodeWRoomy, nodeHRoomy
		colGap, rowGap = colGapRoomy, rowGapRoomy
	}

	levels := graph.BuildLevels(ds)
	if len(levels) == 0 {
		// Nothing depends on anything; render the whole set as one column.
		levels = [][]*model.Issue{ds.Issues}
	}

	// Within a column, attack-order rank decides placement.
	columns := make([][]layoutNode, len(levels))
	maxRows := 0
	for lvl, bucket := range levels {
		col := make([]layoutNode, 0, len(bucket))
		for _, issue := range bucket {
			col = append(col, layoutNode{
				ID:          issue.ID,
				Title:       truncate(issue.Title, 44),
				Status:      issue.EffectiveStatus(),
				Rank:        stats.Rank(issue.ID),
				Criticality: stats.CriticalityOf(issue.ID),
				W:           nodeW,
				H:           nodeH,
			})
		}
		sort.Slice(col, func(i, j int) bool {
			if col[i].Rank != col[j].Rank {
				return col[i].Rank < col[j].Rank
			}
			return col[i].ID < col[j].ID
		})
		columns[lvl] = col
		if len(col) > maxRows {
			maxRows = len(col)
		}
	}

	var nodes []layoutNode
	for lvl, col := range columns {
		for row := range col {
			col[row].X = padding + float64(lvl)*(nodeW+colGap)
			col[row].Y = padding + headerHeight + float64(row)*(nodeH+rowGap)
			nodes = append(nodes, col[row])
		}
	}

	width := int(padding*2 + float64(len(columns)-1)*(nodeW+colGap) + nodeW)
	if width < 640 {
		width = 640
	}
	height := int(padding*2 + headerHeight + float64(maxRows-1)*(nodeH+rowGap) + nodeH)
	if height < 480 {
		height = 480
	}

	// Edges follow the live blocker lists so they agree with the level
	// placement; both endpoints must be rendered.
	rendered := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		rendered[n.ID] = true
	}
	var edges []layoutEdge
	for _, issue := range ds.Issues {
		if !rendered[issue.ID] {
			continue
		}
		for _, blocker := range issue.BlockedBy {
			if rendered[blocker] {
				edges = append(edges, layoutEdge{From: issue.ID, To: blocker})
			}
		}
	}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = "Dependency Graph"
	}

	return layoutResult{
		Nodes:  nodes,
		Edges:  edges,
		Width:  width,
		Height: height,
		Header: headerHeight,
		Summary: summaryInfo{
			Title:        title,
			Hash:         shortHash(ds.Hash),
			NodeCount:    len(nodes),
			EdgeCount:    len(edges),
			CycleCount:   len(stats.Cycles),
			MostCritical: topCriticality(stats.Criticality),
		},
	}
}

// topCriticality names the highest-scoring issue, smallest id on ties.
func topCriticality(m map[string]float64) string {
	var bestID string
	var bestVal float64
	found := false
	for id, v := range m {
		if !found || v > bestVal || (v == bestVal && id < bestID) {
			bestID, bestVal = id, v
			found = true
		}
	}
	if !found {
		return "n/a"
	}
	return fmt.Sprintf("%s (%.3f)", bestID, bestVal)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// --- rendering -------------------------------------------------------------

var (
	colorOpen     = color.RGBA{0xc8, 0xe6, 0xc9, 0xff}
	colorBlocked  = color.RGBA{0xff, 0xcd, 0xd2, 0xff}
	colorInProg   = color.RGBA{0xff, 0xf3, 0xe0, 0xff}
	colorClosed   = color.RGBA{0xcf, 0xd8, 0xdc, 0xff}
	colorStroke   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorEdge     = color.RGBA{0x6b, 0x80, 0xbf, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorLegendBG = color.RGBA{0xee, 0xee, 0xee, 0xff}
)

func statusColor(s model.Status) color.RGBA {
	switch s {
	case model.StatusBlocked:
		return colorBlocked
	case model.StatusInProgress:
		return colorInProg
	case model.StatusClosed:
		return colorClosed
	default:
		return colorOpen
	}
}

func renderPNG(path string, lay layoutResult) error {
	dc := gg.NewContext(lay.Width, lay.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(lay.Width)-32, lay.Header-24, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)

	drawSummaryBlock(dc, lay)
	drawLegend(dc, lay)

	nodePos := make(map[string]layoutNode, len(lay.Nodes))
	for _, n := range lay.Nodes {
		nodePos[n.ID] = n
	}
	dc.SetColor(colorEdge)
	dc.SetLineWidth(2)
	for _, e := range lay.Edges {
		from := nodePos[e.From]
		to := nodePos[e.To]
		// Dependent sits in a deeper column; the edge runs back to the
		// dependency's right side.
		x1 := from.X
		y1 := from.Y + from.H/2
		x2 := to.X + to.W
		y2 := to.Y + to.H/2
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
		drawArrow(dc, x2, y2, 8, 0)
	}

	for _, n := range lay.Nodes {
		drawNode(dc, n)
	}

	return dc.SavePNG(path)
}

func renderSVGFile(path string, lay layoutResult) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return renderSVG(file, lay)
}

func renderSVG(w io.Writer, lay layoutResult) error {
	canvas := svg.New(w)
	canvas.Start(lay.Width, lay.Height)
	canvas.Rect(0, 0, lay.Width, lay.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(16, 16, lay.Width-32, int(lay.Header-24), 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))

	drawSummaryBlockSVG(canvas, lay)
	drawLegendSVG(canvas, lay)

	nodePos := make(map[string]layoutNode, len(lay.Nodes))
	for _, n := range lay.Nodes {
		nodePos[n.ID] = n
	}

	for _, e := range lay.Edges {
		from := nodePos[e.From]
		to := nodePos[e.To]
		x1 := int(from.X)
		y1 := int(from.Y + from.H/2)
		x2 := int(to.X + to.W)
		y2 := int(to.Y + to.H/2)
		canvas.Line(x1, y1, x2, y2, fmt.Sprintf("stroke:%s;stroke-width:2", css(colorEdge)))
		// Arrow head pointing into the dependency.
		canvas.Polygon(
			[]int{x2, x2 + 8, x2 + 8},
			[]int{y2, y2 - 4, y2 + 4},
			fmt.Sprintf("fill:%s", css(colorEdge)),
		)
	}

	for _, n := range lay.Nodes {
		x, y := int(n.X), int(n.Y)
		canvas.Roundrect(x, y, int(n.W), int(n.H), 8, 8,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1.2", css(statusColor(n.Status)), css(colorStroke)))
		canvas.Text(x+10, y+22, n.ID, fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorText)))
		canvas.Text(x+10, y+42, truncate(n.Title, 40), fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
		canvas.Text(x+10, y+60, nodeMetricLine(n),
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle)))
	}

	canvas.End()
	return nil
}

func nodeMetricLine(n layoutNode) string {
	return fmt.Sprintf("#%d  crit %.3f", n.Rank, n.Criticality)
}

func drawNode(dc *gg.Context, n layoutNode) {
	dc.SetColor(statusColor(n.Status))
	dc.DrawRoundedRectangle(n.X, n.Y, n.W, n.H, 8)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.SetLineWidth(1.2)
	dc.DrawRoundedRectangle(n.X, n.Y, n.W, n.H, 8)
	dc.Stroke()

	dc.SetColor(colorText)
	dc.DrawStringAnchored(n.ID, n.X+10, n.Y+18, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(truncate(n.Title, 40), n.X+10, n.Y+36, 0, 0.5)
	dc.DrawStringAnchored(nodeMetricLine(n), n.X+10, n.Y+54, 0, 0.5)
}

// drawArrow fills a triangle with its tip at (x, y) and wings dx toward the
// line it terminates.
func drawArrow(dc *gg.Context, x, y, dx, dy float64) {
	dc.SetColor(colorEdge)
	dc.NewSubPath()
	dc.MoveTo(x, y)
	dc.LineTo(x+dx, y+dy+4)
	dc.LineTo(x+dx, y+dy-4)
	dc.ClosePath()
	dc.Fill()
}

func drawSummaryBlock(dc *gg.Context, lay layoutResult) {
	dc.SetColor(colorText)
	dc.DrawStringAnchored(lay.Summary.Title, 32, 44, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(fmt.Sprintf("data: %s", lay.Summary.Hash), 32, 64, 0, 0.5)
	dc.DrawStringAnchored(summaryCounts(lay.Summary), 32, 84, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("most critical: %s", lay.Summary.MostCritical), 32, 104, 0, 0.5)
}

func summaryCounts(s summaryInfo) string {
	return fmt.Sprintf("nodes: %d  edges: %d  cycles: %d", s.NodeCount, s.EdgeCount, s.CycleCount)
}

func drawLegend(dc *gg.Context, lay layoutResult) {
	boxW, boxH := 180.0, 96.0
	x := float64(lay.Width) - boxW - 20
	y := 24.0
	dc.SetColor(colorLegendBG)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Stroke()

	dc.SetColor(colorText)
	dc.DrawStringAnchored("Legend", x+12, y+18, 0, 0.5)
	drawLegendRow(dc, x+12, y+36, colorOpen, "Open / Ready")
	drawLegendRow(dc, x+12, y+52, colorInProg, "In Progress")
	drawLegendRow(dc, x+12, y+68, colorBlocked, "Blocked")
	drawLegendRow(dc, x+12, y+84, colorClosed, "Closed")
}

func drawLegendRow(dc *gg.Context, x, y float64, c color.RGBA, label string) {
	dc.SetColor(c)
	dc.DrawRoundedRectangle(x, y-8, 14, 14, 3)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.DrawRoundedRectangle(x, y-8, 14, 14, 3)
	dc.Stroke()
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(label, x+20, y, 0, 0.5)
}

func drawSummaryBlockSVG(canvas *svg.SVG, lay layoutResult) {
	canvas.Text(32, 44, lay.Summary.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(32, 64, fmt.Sprintf("data: %s", lay.Summary.Hash), fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	canvas.Text(32, 84, summaryCounts(lay.Summary), fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	canvas.Text(32, 104, fmt.Sprintf("most critical: %s", lay.Summary.MostCritical), fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
}

func drawLegendSVG(canvas *svg.SVG, lay layoutResult) {
	boxW, boxH := 180, 96
	x := lay.Width - boxW - 20
	y := 24
	canvas.Roundrect(x, y, boxW, boxH, 10, 10, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorLegendBG), css(colorStroke)))
	canvas.Text(x+12, y+18, "Legend", fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorText)))
	drawLegendRowSVG(canvas, x+12, y+36, colorOpen, "Open / Ready")
	drawLegendRowSVG(canvas, x+12, y+52, colorInProg, "In Progress")
	drawLegendRowSVG(canvas, x+12, y+68, colorBlocked, "Blocked")
	drawLegendRowSVG(canvas, x+12, y+84, colorClosed, "Closed")
}

func drawLegendRowSVG(canvas *svg.SVG, x, y int, c color.RGBA, label string) {
	canvas.Roundrect(x, y-8, 14, 14, 3, 3, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(c), css(colorStroke)))
	canvas.Text(x+20, y, label, fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
