package html

import (
	"strconv"
	"strings"
)

// NonCSSStyling translates presentation attributes into CSS declaration
// text. The result is cascaded with author origin below every stylesheet
// rule.
func (d *Document) NonCSSStyling(e NodeID) (string, bool) {
	n := d.Node(e)
	if n == nil {
		return "", false
	}

	var sb strings.Builder
	switch n.TagName {
	case "table":
		writeDimension(&sb, n, "width")
		writeDimension(&sb, n, "height")
		if v, ok := n.GetAttribute("cellspacing"); ok {
			if px, ok := pixels(v); ok {
				sb.WriteString("border-spacing: " + px + ";")
			}
		}
		if v, ok := n.GetAttribute("border"); ok {
			px, ok := pixels(v)
			if !ok || v == "" {
				px = "1px"
			}
			sb.WriteString("border-width: " + px + "; border-style: outset;")
		}
		writeColor(&sb, n)
	case "td", "th":
		writeDimension(&sb, n, "width")
		writeDimension(&sb, n, "height")
		writeColor(&sb, n)
		if v, ok := n.GetAttribute("align"); ok {
			sb.WriteString("text-align: " + strings.ToLower(v) + ";")
		}
		if v, ok := n.GetAttribute("valign"); ok {
			sb.WriteString("vertical-align: " + strings.ToLower(v) + ";")
		}
		if _, ok := n.GetAttribute("nowrap"); ok {
			sb.WriteString("white-space: nowrap;")
		}
		if table := enclosingTable(n); table != nil {
			if v, ok := table.GetAttribute("cellpadding"); ok {
				if px, ok := pixels(v); ok {
					sb.WriteString("padding: " + px + ";")
				}
			}
			if v, ok := table.GetAttribute("border"); ok && v != "0" {
				sb.WriteString("border-width: 1px; border-style: inset;")
			}
		}
	case "col", "colgroup", "img":
		writeDimension(&sb, n, "width")
		writeDimension(&sb, n, "height")
	case "tr", "tbody", "thead", "tfoot":
		writeColor(&sb, n)
	default:
		return "", false
	}

	if sb.Len() == 0 {
		return "", false
	}
	return sb.String(), true
}

func writeDimension(sb *strings.Builder, n *Node, attr string) {
	v, ok := n.GetAttribute(attr)
	if !ok {
		return
	}
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "%") {
		if _, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64); err == nil {
			sb.WriteString(attr + ": " + v + ";")
		}
		return
	}
	if px, ok := pixels(v); ok {
		sb.WriteString(attr + ": " + px + ";")
	}
}

func writeColor(sb *strings.Builder, n *Node) {
	if v, ok := n.GetAttribute("bgcolor"); ok && v != "" {
		sb.WriteString("background-color: " + v + ";")
	}
}

// pixels accepts a non-negative integer attribute value, as in width="120"
// or width="120px".
func pixels(v string) (string, bool) {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return "", false
	}
	return strconv.Itoa(i) + "px", true
}

func enclosingTable(n *Node) *Node {
	for p := n.ParentElement(); p != nil; p = p.ParentElement() {
		if p.TagName == "table" {
			return p
		}
	}
	return nil
}
