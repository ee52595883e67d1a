package flyer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"regexp"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	DefaultSize = 1080

	fallbackColor = "#0F766E"
	badgeTextHex  = "#0A4D3C"
	cardTextHex   = "#0F766E"
	goldHex       = "#D4AF37"
	goldLightHex  = "#F4D03F"

	maxFontSize = 38.0
	minFontSize = 18.0
	lineSpacing = 1.65
)

// Card 海报上的可变内容
type Card struct {
	UserName string
	Day      int
	Message  string
}

// Renderer 把寄语绘制成 PNG 海报，背景图在构造时加载一次
type Renderer struct {
	width      int
	height     int
	background image.Image

	regular *truetype.Font
	bold    *truetype.Font
}

// NewRenderer 创建渲染器；背景图缺失或无法解析时使用纯色背景
func NewRenderer(backgroundPath string, width, height int) (*Renderer, error) {
	if width <= 0 {
		width = DefaultSize
	}
	if height <= 0 {
		height = DefaultSize
	}

	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}

	r := &Renderer{width: width, height: height, regular: regular, bold: bold}
	if backgroundPath != "" {
		if img, err := gg.LoadImage(backgroundPath); err == nil {
			r.background = cover(img, width, height)
		}
	}
	return r, nil
}

// HasBackground 背景图是否加载成功
func (r *Renderer) HasBackground() bool {
	return r.background != nil
}

// Render 绘制海报并编码为 PNG
func (r *Renderer) Render(card Card) ([]byte, error) {
	w, h := float64(r.width), float64(r.height)
	dc := gg.NewContext(r.width, r.height)

	dc.SetHexColor(fallbackColor)
	dc.Clear()
	if r.background != nil {
		dc.DrawImage(r.background, 0, 0)
	}

	scale := w / DefaultSize
	r.drawBadge(dc, card.Day, scale)
	cardBottom := r.drawMessageCard(dc, card.Message, w, h, scale)
	r.drawName(dc, card.UserName, w, cardBottom, scale)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
}

func (r *Renderer) drawBadge(dc *gg.Context, day int, scale float64) {
	x, y := 50*scale, 50*scale
	bw, bh := 170*scale, 140*scale

	dc.SetRGBA(0, 0, 0, 0.3)
	dc.DrawRoundedRectangle(x+4*scale, y+8*scale, bw, bh, 20*scale)
	dc.Fill()

	grad := gg.NewLinearGradient(x, y, x+bw, y+bh)
	grad.AddColorStop(0, color.RGBA{212, 175, 55, 242})
	grad.AddColorStop(1, color.RGBA{244, 208, 63, 242})
	dc.SetFillStyle(grad)
	dc.DrawRoundedRectangle(x, y, bw, bh, 20*scale)
	dc.Fill()

	dc.SetHexColor(badgeTextHex)
	dc.SetFontFace(r.face(r.bold, 68*scale))
	dc.DrawStringAnchored(strconv.Itoa(day), x+bw/2, y+bh*0.42, 0.5, 0.5)
	dc.SetFontFace(r.face(r.bold, 16*scale))
	dc.DrawStringAnchored("D A Y", x+bw/2, y+bh*0.8, 0.5, 0.5)
}

// drawMessageCard 绘制居中白色卡片，返回卡片底部的 y 坐标
func (r *Renderer) drawMessageCard(dc *gg.Context, message string, w, h, scale float64) float64 {
	cw := 880 * scale
	if cw > w*0.9 {
		cw = w * 0.9
	}
	padX, padY := 50*scale, 55*scale
	minH, maxH := 320*scale, 480*scale
	textW := cw - 2*padX

	size, lines := r.fitText(dc, message, textW, maxH-2*padY, scale)
	lineH := size * lineSpacing
	ch := float64(len(lines))*lineH + 2*padY
	if ch < minH {
		ch = minH
	}
	if ch > maxH {
		ch = maxH
	}

	cx := (w - cw) / 2
	cy := (h-ch)/2 - 20*scale
	radius := 35 * scale

	dc.SetRGBA(0, 0, 0, 0.35)
	dc.DrawRoundedRectangle(cx, cy+20*scale, cw, ch, radius)
	dc.Fill()

	dc.SetRGBA(1, 1, 1, 0.97)
	dc.DrawRoundedRectangle(cx, cy, cw, ch, radius)
	dc.Fill()

	dc.SetHexColor(goldHex)
	dc.SetLineWidth(3 * scale)
	dc.DrawRoundedRectangle(cx, cy, cw, ch, radius)
	dc.Stroke()

	dc.SetHexColor(cardTextHex)
	dc.SetFontFace(r.face(r.regular, size))
	top := cy + (ch-float64(len(lines))*lineH)/2
	for i, line := range lines {
		dc.DrawStringAnchored(line, w/2, top+lineH*(float64(i)+0.5), 0.5, 0.5)
	}

	return cy + ch
}

// fitText 从最大字号开始缩小，直到文本高度能放进卡片
func (r *Renderer) fitText(dc *gg.Context, message string, width, maxHeight, scale float64) (float64, []string) {
	message = strings.TrimSpace(message)
	size := maxFontSize * scale
	for {
		dc.SetFontFace(r.face(r.regular, size))
		lines := dc.WordWrap(breakLongWords(dc, message, width), width)
		if float64(len(lines))*size*lineSpacing <= maxHeight || size <= minFontSize*scale {
			return size, lines
		}
		size -= 2 * scale
	}
}

// breakLongWords 把单行放不下的词按字符切开，WordWrap 只在空白处换行
func breakLongWords(dc *gg.Context, text string, width float64) string {
	paragraphs := strings.Split(text, "\n")
	for i, p := range paragraphs {
		words := strings.Fields(p)
		for j, word := range words {
			if w, _ := dc.MeasureString(word); w > width {
				words[j] = strings.Join(splitWord(dc, word, width), " ")
			}
		}
		paragraphs[i] = strings.Join(words, " ")
	}
	return strings.Join(paragraphs, "\n")
}

func splitWord(dc *gg.Context, word string, width float64) []string {
	runes := []rune(word)
	var parts []string
	for start := 0; start < len(runes); {
		// 每段至少一个字符
		end := start + 1
		for end < len(runes) {
			if w, _ := dc.MeasureString(string(runes[start : end+1])); w > width {
				break
			}
			end++
		}
		parts = append(parts, string(runes[start:end]))
		start = end
	}
	return parts
}

func (r *Renderer) drawName(dc *gg.Context, name string, w, cardBottom, scale float64) {
	lineY := cardBottom + 50*scale

	dc.SetHexColor(goldLightHex)
	dc.SetLineWidth(2 * scale)
	dc.DrawLine(w/2-130*scale, lineY, w/2-30*scale, lineY)
	dc.DrawLine(w/2+30*scale, lineY, w/2+130*scale, lineY)
	dc.Stroke()
	dc.DrawRegularPolygon(4, w/2, lineY, 9*scale, 0)
	dc.Fill()

	nameY := lineY + 55*scale
	dc.SetFontFace(r.face(r.bold, 48*scale))
	dc.SetRGBA(0, 0, 0, 0.5)
	dc.DrawStringAnchored(name, w/2+2*scale, nameY+4*scale, 0.5, 0.5)
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(name, w/2, nameY, 0.5, 0.5)
}

// cover 等比缩放并居中裁剪，使图片铺满画布
func cover(src image.Image, width, height int) image.Image {
	sb := src.Bounds()
	sw, sh := float64(sb.Dx()), float64(sb.Dy())
	scale := float64(width) / sw
	if s := float64(height) / sh; s > scale {
		scale = s
	}

	cropW, cropH := int(float64(width)/scale), int(float64(height)/scale)
	x0 := sb.Min.X + (sb.Dx()-cropW)/2
	y0 := sb.Min.Y + (sb.Dy()-cropH)/2
	crop := image.Rect(x0, y0, x0+cropW, y0+cropH)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)
	return dst
}

var nonWord = regexp.MustCompile(`[^\w]+`)

// Slugify 转小写并把连续的非单词字符替换为 "-"
func Slugify(text string) string {
	return nonWord.ReplaceAllString(strings.ToLower(text), "-")
}

// FileName 下载文件名 ramadan-day-<day>-<slug>.png
func FileName(day int, topic string) string {
	return fmt.Sprintf("ramadan-day-%d-%s.png", day, Slugify(topic))
}
