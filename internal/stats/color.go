package stats

import "fmt"

// palette is the base set of display colours handed to processes in id order.
var palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// Color returns the display colour assigned to pid for this run. Colours are
// assigned lazily and reseeded by Reset; ids beyond the palette get a
// generated hue so every process stays distinguishable.
func (s *GraphStats) Color(pid int) string {
	if c, ok := s.colors[pid]; ok {
		return c
	}
	var c string
	if pid >= 0 && pid < len(palette) {
		c = palette[pid]
	} else {
		hue := (pid * 47) % 360
		if hue < 0 {
			hue += 360
		}
		c = fmt.Sprintf("hsl(%d, 65%%, 50%%)", hue)
	}
	s.colors[pid] = c
	return c
}
