package probe

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/John-Robertt/folio/internal/domain"
)

// svgDims 从 svg 根元素解析尺寸：优先 width/height（仅接受无单位或 px），否则取 viewBox。
func svgDims(r io.Reader) (domain.Dims, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return domain.Dims{}, errors.New("未找到 svg 根元素")
			}
			return domain.Dims{}, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !strings.EqualFold(se.Name.Local, "svg") {
			return domain.Dims{}, fmt.Errorf("根元素不是 svg：%q", se.Name.Local)
		}
		return svgRootDims(se)
	}
}

func svgRootDims(se xml.StartElement) (domain.Dims, error) {
	var width, height, viewBox string
	for _, a := range se.Attr {
		switch a.Name.Local {
		case "width":
			width = a.Value
		case "height":
			height = a.Value
		case "viewBox":
			viewBox = a.Value
		}
	}

	w, okW := svgLength(width)
	h, okH := svgLength(height)
	if okW && okH {
		return domain.Dims{Width: w, Height: h}, nil
	}

	f := strings.FieldsFunc(viewBox, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == '\n' })
	if len(f) == 4 {
		vw, errW := strconv.ParseFloat(f[2], 64)
		vh, errH := strconv.ParseFloat(f[3], 64)
		if errW == nil && errH == nil && vw > 0 && vh > 0 {
			return domain.Dims{Width: roundPos(vw), Height: roundPos(vh)}, nil
		}
	}
	return domain.Dims{}, errors.New("svg 缺少可用的 width/height/viewBox")
}

func svgLength(s string) (int, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return roundPos(v), true
}

func roundPos(v float64) int {
	n := int(math.Round(v))
	if n < 1 {
		return 1
	}
	return n
}
