package linviz

import (
	"fmt"
	"io"
	"strings"
)

// WriteSVG renders a scene as a static SVG document showing the given
// interaction state: the layers and event boxes it leaves visible, the
// selected box, and each box's tooltip as a <title>. The zero State is the
// default view.
func WriteSVG(w io.Writer, s *Scene, c *Controller, config Config, state State) error {
	_, err := io.WriteString(w, generateSVG(s, c, config, state))
	return err
}

// generateSVG creates the SVG document for a scene
func generateSVG(s *Scene, c *Controller, config Config, state State) string {
	var svg strings.Builder
	svg.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg width="%s" height="%s" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="%s"/>
<defs>
<style>
.box-text { font-family: %s; font-size: %dpx; dominant-baseline: middle; text-anchor: middle; }
.row-label { font-family: %s; font-size: %dpx; font-weight: bold; fill: %s; dominant-baseline: middle; text-anchor: end; }
.divider { stroke: %s; stroke-width: 1; }
.linearization line.point, .linearization line.segment { stroke: %s; stroke-width: %s; }
.linearization line.illegal, .linearization line.illegal-segment { stroke: %s; stroke-width: %s; }
.linearization line.illegal-segment { stroke-dasharray: 4 3; }
.event.selected rect { stroke: %s; stroke-width: 2; }
`, num(s.Width), num(s.Height), config.Colors.Background,
		escapeXML(config.Font.Family), config.Font.Size,
		escapeXML(config.Font.Family), config.Font.Size, config.Colors.Label,
		config.Colors.Label,
		config.Colors.Point, num(config.Marker.StrokeWidth),
		config.Colors.Illegal, num(config.Marker.StrokeWidth),
		config.Colors.Selected))
	for _, kind := range KindEnum.Members() {
		svg.WriteString(fmt.Sprintf(".event.%s rect { fill: %s; }\n", kind, kindFill(kind, config)))
	}
	svg.WriteString("</style>\n</defs>\n")

	for _, row := range s.Rows {
		svg.WriteString(fmt.Sprintf(`<text class="row-label" x="%s" y="%s">%s</text>`,
			num(row.X), num(row.Y), escapeXML(row.Label)))
		svg.WriteString("\n")
	}
	for _, d := range s.Dividers {
		svg.WriteString(fmt.Sprintf(`<line class="divider" x1="%s" y1="%s" x2="%s" y2="%s"/>`,
			num(d.X1), num(d.Y1), num(d.X2), num(d.Y2)))
		svg.WriteString("\n")
	}

	frame := c.View(state)

	// boxes are ordered by partition; each partition is one group
	partition := -1
	for _, box := range s.Boxes {
		if box.Ref.Partition != partition {
			if partition >= 0 {
				svg.WriteString("</g>\n")
			}
			partition = box.Ref.Partition
			svg.WriteString(fmt.Sprintf(`<g class="history" data-partition="%d" visibility="%s">`,
				partition, visibility(frame.VisibleHistory[partition])))
			svg.WriteString("\n")
		}
		drawBox(&svg, box, c, config, state)
	}
	if partition >= 0 {
		svg.WriteString("</g>\n")
	}

	for _, layer := range s.Layers {
		drawLayer(&svg, layer, frame.Visible[layer.Partition] == layer.Index, config)
	}

	svg.WriteString("</svg>\n")
	return svg.String()
}

func visibility(visible bool) string {
	if visible {
		return "visible"
	}
	return "hidden"
}

// kindFill is the stylesheet fill of a kind's boxes.
func kindFill(k Kind, config Config) string {
	if k == KindAnnotation {
		return config.Colors.Annotation
	}
	return config.Colors.Operation
}

// drawBox draws one event rectangle with its centered label and tooltip. A
// fill differing from the kind's stylesheet fill is set inline.
func drawBox(svg *strings.Builder, box Box, c *Controller, config Config, state State) {
	class := "event " + box.Kind.String()
	if state.Selected && state.Selection == box.Ref {
		class += " selected"
	}
	svg.WriteString(fmt.Sprintf(`<g class="%s" data-partition="%d" data-event="%d" data-gid="%d">`,
		class, box.Ref.Partition, box.Ref.Event, box.GlobalID))
	svg.WriteString(fmt.Sprintf(`<title>%s</title>`, escapeXML(c.Tooltip(state, box.Ref))))
	style := ""
	if box.Fill != kindFill(box.Kind, config) {
		style = fmt.Sprintf(` style="fill: %s"`, box.Fill)
	}
	svg.WriteString(fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s" rx="%s" ry="%s"%s/>`,
		num(box.X), num(box.Y), num(box.Width), num(box.Height),
		num(config.Layout.BoxRadius), num(config.Layout.BoxRadius), style))
	svg.WriteString(fmt.Sprintf(`<text class="box-text" x="%s" y="%s" fill="%s">%s</text>`,
		num(box.TextX), num(box.TextY), box.Color, escapeXML(box.Label)))
	svg.WriteString("</g>\n")
}

// drawLayer draws the points and segments of one linearization.
func drawLayer(svg *strings.Builder, layer SceneLayer, visible bool, config Config) {
	svg.WriteString(fmt.Sprintf(`<g class="linearization" data-partition="%d" data-index="%d" visibility="%s">`,
		layer.Partition, layer.Index, visibility(visible)))
	for _, seg := range layer.Segments {
		drawSegment(svg, seg, "segment")
	}
	for _, seg := range layer.IllegalSegments {
		drawSegment(svg, seg, "illegal-segment")
	}
	for _, pt := range layer.Points {
		drawPointMarker(svg, pt, "point", config.Colors.Point, config)
	}
	for _, pt := range layer.Illegal {
		drawPointMarker(svg, pt, "illegal", config.Colors.Illegal, config)
	}
	svg.WriteString("</g>\n")
}

func drawSegment(svg *strings.Builder, seg Segment, class string) {
	svg.WriteString(fmt.Sprintf(`<line class="%s" x1="%s" y1="%s" x2="%s" y2="%s"/>`,
		class, num(seg.X1), num(seg.Y1), num(seg.X2), num(seg.Y2)))
}

// drawPointMarker draws a linearization point. The tick through the row is
// always drawn; marker.shape adds a symbol at its center.
//
// Supported shapes:
//   - "line": the tick alone
//   - "circle": circular marker with radius marker.size
//   - "square": square marker with side 2*marker.size
//   - "diamond": a rotated square
//   - "triangle": upward-pointing triangle
func drawPointMarker(svg *strings.Builder, pt Point, class, fill string, config Config) {
	svg.WriteString(fmt.Sprintf(`<line class="%s" data-event="%d" x1="%s" y1="%s" x2="%s" y2="%s"/>`,
		class, pt.Event, num(pt.X), num(pt.Y1), num(pt.X), num(pt.Y2)))

	size := config.Marker.Size
	x, y := pt.X, (pt.Y1+pt.Y2)/2
	switch strings.ToLower(config.Marker.Shape) {
	case "circle":
		svg.WriteString(fmt.Sprintf(`<circle cx="%s" cy="%s" r="%s" fill="%s"/>`,
			num(x), num(y), num(size), fill))

	case "square":
		svg.WriteString(fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`,
			num(x-size), num(y-size), num(size*2), num(size*2), fill))

	case "diamond":
		svg.WriteString(fmt.Sprintf(`<polygon points="%s,%s %s,%s %s,%s %s,%s" fill="%s"/>`,
			num(x), num(y-size),
			num(x+size), num(y),
			num(x), num(y+size),
			num(x-size), num(y),
			fill))

	case "triangle":
		height := size * 1.5
		svg.WriteString(fmt.Sprintf(`<polygon points="%s,%s %s,%s %s,%s" fill="%s"/>`,
			num(x), num(y-height),
			num(x-size), num(y+height/2),
			num(x+size), num(y+height/2),
			fill))
	}
}

// num formats a coordinate with at most two decimals.
func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// xmlEscaper covers text content and quoted attribute values.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
