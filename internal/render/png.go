package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/ledger"
	"github.com/park285/cheese-desk/internal/rules"
)

var ErrEmptyBoard = errors.New("render: empty board")

type Highlight struct {
	From domain.Position
	To   domain.Position
	// Mover colors the overlay: squares for white, an arrow for black.
	Mover domain.Color
}

type Options struct {
	Title     string
	Turn      string
	Flip      bool // draw from black's side
	Selected  *domain.Position
	Highlight *Highlight
	Captured  ledger.Snapshot
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, b rules.Board, opts Options) ([]byte, error)
}

type PNGRenderer struct {
	squareSize int
}

func NewPNGRenderer(squareSize int) *PNGRenderer {
	if squareSize <= 0 {
		squareSize = 72
	}
	return &PNGRenderer{squareSize: squareSize}
}

const (
	sideMargin      = 36
	topMargin       = 110
	bottomMargin    = 36
	captureStrip    = 44
	titleHeight     = 40
	turnPanelHeight = 32
	panelGap        = 14
	gapToBoard      = 22
	panelRadius     = 12
	panelPaddingX   = 24
	titleMinWidth   = 240
	scoreMinWidth   = 72
	turnMinWidth    = 140
	shadowOffsetY   = 6
)

func (r *PNGRenderer) RenderPNG(ctx context.Context, b rules.Board, opts Options) ([]byte, error) {
	if b.IsZero() {
		return nil, ErrEmptyBoard
	}
	sq := r.squareSize
	boardSize := sq * domain.BoardSize
	origin := image.Point{X: sideMargin, Y: topMargin}
	boardRect := image.Rect(origin.X, origin.Y, origin.X+boardSize, origin.Y+boardSize)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin+captureStrip))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	drawHUD(img, opts, boardRect)
	drawBoardShadow(img, boardRect)
	drawSquares(img, sq, origin)
	if opts.Highlight != nil {
		drawHighlight(img, *opts.Highlight, sq, origin, opts.Flip)
	}
	if opts.Selected != nil {
		drawSquareOverlay(img, squareRect(*opts.Selected, sq, origin, opts.Flip), selectedColor)
	}
	for _, p := range b.Pieces() {
		pimg, err := pieceImage(p, sq)
		if err != nil {
			return nil, err
		}
		rect := squareRect(p.Pos, sq, origin, opts.Flip)
		imagedraw.Draw(img, rect, pimg, image.Point{}, imagedraw.Over)
	}
	drawCoordinates(img, sq, origin, opts.Flip)
	if err := drawCaptures(img, opts.Captured, image.Point{X: origin.X, Y: boardRect.Max.Y + bottomMargin}, boardSize); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	backgroundColor     = color.RGBA{R: 245, G: 242, B: 236, A: 255}
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	selectedColor       = color.NRGBA{R: 120, G: 200, B: 120, A: 150}
	whiteMoveFill       = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	blackMoveArrow      = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	hudPanelColor       = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudTurnPanelColor   = color.NRGBA{R: 32, G: 35, B: 52, A: 245}
	hudShadowColor      = color.NRGBA{0, 0, 0, 50}
	hudTextPrimary      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudTurnTextColor    = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	boardShadowColor    = color.NRGBA{0, 0, 0, 60}
	coordinateTextColor = color.NRGBA{R: 8, G: 140, B: 90, A: 255}
)

// squareRect maps p to pixels; rank 8 is on top unless flipped.
func squareRect(p domain.Position, size int, origin image.Point, flip bool) image.Rectangle {
	row, col := domain.BoardSize-1-p.Row, p.Col
	if flip {
		row, col = p.Row, domain.BoardSize-1-p.Col
	}
	x := origin.X + col*size
	y := origin.Y + row*size
	return image.Rect(x, y, x+size, y+size)
}

func squareColor(p domain.Position) color.Color {
	if (p.Row+p.Col)%2 == 0 {
		return darkSquare
	}
	return lightSquare
}

func drawBoardShadow(img *image.RGBA, boardRect image.Rectangle) {
	shadow := image.Rect(boardRect.Min.X+4, boardRect.Min.Y+8, boardRect.Max.X+10, boardRect.Max.Y+12)
	imagedraw.Draw(img, shadow, image.NewUniform(boardShadowColor), image.Point{}, imagedraw.Over)
}

func drawSquares(dst imagedraw.Image, size int, origin image.Point) {
	for row := 0; row < domain.BoardSize; row++ {
		for col := 0; col < domain.BoardSize; col++ {
			p := domain.NewPosition(row, col)
			rect := squareRect(p, size, origin, false)
			imagedraw.Draw(dst, rect, image.NewUniform(squareColor(p)), image.Point{}, imagedraw.Src)
		}
	}
}

func drawHighlight(img *image.RGBA, h Highlight, size int, origin image.Point, flip bool) {
	if h.Mover == domain.White {
		drawSquareOverlay(img, squareRect(h.From, size, origin, flip), whiteMoveFill)
		drawSquareOverlay(img, squareRect(h.To, size, origin, flip), whiteMoveFill)
		return
	}
	drawArrow(img, squareRect(h.From, size, origin, flip), squareRect(h.To, size, origin, flip), size, blackMoveArrow)
}

func drawSquareOverlay(img *image.RGBA, rect image.Rectangle, clr color.Color) {
	imagedraw.Draw(img, rect, image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawHUD(img *image.RGBA, opts Options, boardRect image.Rectangle) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: img, Face: face}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = "Human vs Computer"
	}
	turn := strings.TrimSpace(opts.Turn)
	score := formatMaterialDiff(opts.Captured)

	turnBottom := boardRect.Min.Y - gapToBoard
	turnTop := turnBottom - turnPanelHeight
	titleBottom := turnTop - panelGap
	titleTop := titleBottom - titleHeight

	titleWidth := max(titleMinWidth, drawer.MeasureString(title).Round()+panelPaddingX*2)
	scoreWidth := max(scoreMinWidth, drawer.MeasureString(score).Round()+panelPaddingX*2)
	turnWidth := max(turnMinWidth, drawer.MeasureString(turn).Round()+panelPaddingX*2)
	titleWidth = min(titleWidth, boardRect.Dx()-scoreWidth-24)
	turnWidth = min(turnWidth, boardRect.Dx()-40)

	titleRect := image.Rect(boardRect.Min.X, titleTop, boardRect.Min.X+titleWidth, titleBottom)
	scoreRect := image.Rect(boardRect.Max.X-scoreWidth, titleTop, boardRect.Max.X, titleBottom)
	turnLeft := boardRect.Min.X + (boardRect.Dx()-turnWidth)/2
	turnRect := image.Rect(turnLeft, turnTop, turnLeft+turnWidth, turnBottom)

	panels := []image.Rectangle{titleRect, scoreRect}
	if turn != "" {
		panels = append(panels, turnRect)
	}
	for _, rect := range panels {
		drawRoundedPanel(img, rect.Add(image.Pt(0, shadowOffsetY)), panelRadius, hudShadowColor)
	}
	drawRoundedPanel(img, titleRect, panelRadius, hudPanelColor)
	drawRoundedPanel(img, scoreRect, panelRadius, hudPanelColor)
	drawCenteredString(drawer, titleRect, truncateWithEllipsis(face, title, titleRect.Dx()-panelPaddingX*2), hudTextPrimary)
	drawCenteredString(drawer, scoreRect, score, hudTextPrimary)
	if turn != "" {
		drawRoundedPanel(img, turnRect, panelRadius, hudTurnPanelColor)
		drawCenteredString(drawer, turnRect, truncateWithEllipsis(face, turn, turnRect.Dx()-panelPaddingX*2), hudTurnTextColor)
	}
}

// drawCaptures lays out pieces lost by black on the left and by white on the right.
func drawCaptures(img *image.RGBA, captured ledger.Snapshot, origin image.Point, width int) error {
	const size = 28
	x := origin.X
	for _, p := range captured.Black {
		pimg, err := pieceImage(p, size)
		if err != nil {
			return err
		}
		imagedraw.Draw(img, image.Rect(x, origin.Y, x+size, origin.Y+size), pimg, image.Point{}, imagedraw.Over)
		x += size - 6
	}
	x = origin.X + width - size
	for _, p := range captured.White {
		pimg, err := pieceImage(p, size)
		if err != nil {
			return err
		}
		imagedraw.Draw(img, image.Rect(x, origin.Y, x+size, origin.Y+size), pimg, image.Point{}, imagedraw.Over)
		x -= size - 6
	}
	return nil
}

var materialValue = map[domain.PieceKind]int{
	domain.Pawn: 1, domain.Knight: 3, domain.Bishop: 3, domain.Rook: 5, domain.Queen: 9,
}

// Material sums the usual point values of ps.
func Material(ps []domain.Piece) int {
	total := 0
	for _, p := range ps {
		total += materialValue[p.Kind]
	}
	return total
}

// MaterialDiff is white's material lead computed from the capture ledger.
func MaterialDiff(captured ledger.Snapshot) int {
	return Material(captured.Black) - Material(captured.White)
}

func formatMaterialDiff(captured ledger.Snapshot) string {
	diff := MaterialDiff(captured)
	if diff == 0 {
		return "0"
	}
	return fmt.Sprintf("%+d", diff)
}

func drawCoordinates(dst imagedraw.Image, size int, origin image.Point, flip bool) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Face: face, Src: image.NewUniform(coordinateTextColor)}
	ascent := face.Metrics().Ascent.Ceil()
	for i := 0; i < domain.BoardSize; i++ {
		rank := domain.NewPosition(i, 0)
		rect := squareRect(rank, size, origin, flip)
		drawCenteredText(drawer, fmt.Sprintf("%d", i+1), origin.X-sideMargin/2, rect.Min.Y+size/2+ascent/2)

		file := domain.NewPosition(0, i)
		rect = squareRect(file, size, origin, flip)
		drawCenteredText(drawer, string(rune('a'+i)), rect.Min.X+size/2, origin.Y+size*domain.BoardSize+ascent+4)
	}
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := max(rect.Min.X, rect.Min.X+(rect.Dx()-width)/2)
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 {
		return trimmed
	}
	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}
	const ellipsis = "..."
	if drawer.MeasureString(ellipsis).Round() > maxWidth {
		return ""
	}
	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		if candidate := string(runes) + ellipsis; drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if rect.Empty() {
		return
	}
	radius = max(0, min(radius, rect.Dx()/2, rect.Dy()/2))
	fill := image.NewUniform(clr)
	if radius == 0 {
		imagedraw.Draw(img, rect, fill, image.Point{}, imagedraw.Over)
		return
	}
	// Bands and corners must not overlap or translucent colors darken.
	imagedraw.Draw(img, image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)
	corners := []struct {
		c      image.Point
		dx, dy int
	}{
		{image.Pt(rect.Min.X+radius, rect.Min.Y+radius), -1, -1},
		{image.Pt(rect.Max.X-radius-1, rect.Min.Y+radius), 1, -1},
		{image.Pt(rect.Min.X+radius, rect.Max.Y-radius-1), -1, 1},
		{image.Pt(rect.Max.X-radius-1, rect.Max.Y-radius-1), 1, 1},
	}
	for _, k := range corners {
		drawQuarterDisc(img, k.c, radius, k.dx, k.dy, clr)
	}
}

func drawQuarterDisc(img *image.RGBA, center image.Point, radius, sx, sy int, clr color.Color) {
	r2 := radius * radius
	for y := 0; y <= radius; y++ {
		for x := 0; x <= radius; x++ {
			if x == 0 || y == 0 {
				continue
			}
			if x*x+y*y > r2 {
				continue
			}
			blendPixel(img, center.X+sx*x, center.Y+sy*y, clr)
		}
	}
}

func drawArrow(img *image.RGBA, fromRect, toRect image.Rectangle, size int, clr color.Color) {
	start := pointF{X: float64(fromRect.Min.X + size/2), Y: float64(fromRect.Min.Y + size/2)}
	end := pointF{X: float64(toRect.Min.X + size/2), Y: float64(toRect.Min.Y + size/2)}
	dx, dy := end.X-start.X, end.Y-start.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	dirX, dirY := dx/length, dy/length
	perpX, perpY := -dirY, dirX

	baseLength := length - float64(size)*0.45
	if baseLength < float64(size)*0.35 {
		baseLength = length * 0.6
	}
	halfWidth := float64(size) * 0.18
	headWidth := float64(size) * 0.32
	base := pointF{X: start.X + dirX*baseLength, Y: start.Y + dirY*baseLength}

	offset := func(p pointF, w float64) pointF { return pointF{X: p.X + perpX*w, Y: p.Y + perpY*w} }
	fillTriangleF(img, offset(start, -halfWidth), offset(start, halfWidth), offset(base, halfWidth), clr)
	fillTriangleF(img, offset(start, -halfWidth), offset(base, halfWidth), offset(base, -halfWidth), clr)
	fillTriangleF(img, end, offset(base, -headWidth/2), offset(base, headWidth/2), clr)
}

type pointF struct {
	X float64
	Y float64
}

func fillTriangleF(img *image.RGBA, a, b, c pointF, clr color.Color) {
	minX := int(math.Floor(math.Min(a.X, math.Min(b.X, c.X))))
	maxX := int(math.Ceil(math.Max(a.X, math.Max(b.X, c.X))))
	minY := int(math.Floor(math.Min(a.Y, math.Min(b.Y, c.Y))))
	maxY := int(math.Ceil(math.Max(a.Y, math.Max(b.Y, c.Y))))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if pointInTriangle(float64(x)+0.5, float64(y)+0.5, a, b, c) {
				blendPixel(img, x, y, clr)
			}
		}
	}
}

func pointInTriangle(x, y float64, a, b, c pointF) bool {
	denom := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if denom == 0 {
		return false
	}
	alpha := ((b.Y-c.Y)*(x-c.X) + (c.X-b.X)*(y-c.Y)) / denom
	beta := ((c.Y-a.Y)*(x-c.X) + (a.X-c.X)*(y-c.Y)) / denom
	return alpha >= 0 && beta >= 0 && 1-alpha-beta >= 0
}

// blendPixel composites clr over the pixel at (x, y) with source-over.
func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	if sa == 0 {
		return
	}
	dst := img.RGBAAt(x, y)
	inv := 0xffff - sa
	blend := func(s uint32, d uint8) uint8 {
		return uint8((s + uint32(d)*0x101*inv/0xffff) >> 8)
	}
	img.SetRGBA(x, y, color.RGBA{
		R: blend(sr, dst.R),
		G: blend(sg, dst.G),
		B: blend(sb, dst.B),
		A: blend(sa, dst.A),
	})
}
