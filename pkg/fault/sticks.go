package fault

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"seishorizon/internal/models"
	"seishorizon/pkg/geometry"
)

// ParseSticks reads a fault from a plain-text stick file. Each line holds
// three columns "inline crossline depth", yielding a bare voxel cloud,
// four columns with a trailing stick index, or five columns
// "inline crossline depth name stick", yielding a stick skeleton whose
// polylines are rasterized into the voxel cloud. A name carried by the
// payload overrides the name argument. Empty input yields an empty fault,
// not an error.
func ParseSticks(r io.Reader, vol geometry.Volume, name string) (*Fault, error) {
	var nodes []models.Point
	var stickIdx []int
	hasSticks := false

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 || len(fields) > 5 {
			return nil, fmt.Errorf("fault: line %d has %d columns, want 3 to 5", lineNo, len(fields))
		}

		var vals [3]int
		for k := 0; k < 3; k++ {
			v, err := strconv.Atoi(fields[k])
			if err != nil {
				return nil, fmt.Errorf("fault: line %d column %d: %w", lineNo, k+1, err)
			}
			vals[k] = v
		}
		nodes = append(nodes, models.Point{I: vals[0], X: vals[1], D: vals[2]})

		switch len(fields) {
		case 3:
			stickIdx = append(stickIdx, 0)
		case 4:
			idx, err := strconv.Atoi(fields[3])
			if err != nil {
				return nil, fmt.Errorf("fault: line %d column 4: %w", lineNo, err)
			}
			hasSticks = true
			stickIdx = append(stickIdx, idx)
		case 5:
			// The fourth column names the fault.
			name = fields[3]
			idx, err := strconv.Atoi(fields[4])
			if err != nil {
				return nil, fmt.Errorf("fault: line %d column 5: %w", lineNo, err)
			}
			hasSticks = true
			stickIdx = append(stickIdx, idx)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if !hasSticks {
		return New(vol, name, nodes), nil
	}
	sticks, err := SticksFromNodes(nodes, stickIdx)
	if err != nil {
		return nil, err
	}
	f := New(vol, name, rasterizeSticks(sticks))
	f.Nodes = nodes
	f.Sticks = sticks
	return f, nil
}

// WriteSticks emits the fault's stick skeleton as five-column lines
// carrying the fault name, four-column lines when the fault is unnamed,
// or its bare voxel cloud as three-column lines when no sticks are
// attached. A name holding whitespace would not survive a reparse and is
// rejected.
func WriteSticks(w io.Writer, f *Fault) error {
	bw := bufio.NewWriter(w)
	if f.Sticks == nil {
		for _, p := range f.Points {
			if _, err := fmt.Fprintf(bw, "%d %d %d\n", p.I, p.X, p.D); err != nil {
				return err
			}
		}
		return bw.Flush()
	}
	if strings.ContainsAny(f.Name, " \t") {
		return fmt.Errorf("fault: name %q holds whitespace", f.Name)
	}
	for idx, stick := range f.Sticks {
		for _, p := range stick {
			var err error
			if f.Name == "" {
				_, err = fmt.Fprintf(bw, "%d %d %d %d\n", p.I, p.X, p.D, idx)
			} else {
				_, err = fmt.Fprintf(bw, "%d %d %d %s %d\n", p.I, p.X, p.D, f.Name, idx)
			}
			if err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// SticksFromNodes groups a flat node list into sticks by the parallel
// stick index slice, preserving node order within each stick.
func SticksFromNodes(nodes []models.Point, stickIdx []int) ([][]models.Point, error) {
	if len(nodes) != len(stickIdx) {
		return nil, fmt.Errorf("fault: %d nodes but %d stick indices", len(nodes), len(stickIdx))
	}
	byStick := make(map[int][]models.Point)
	var order []int
	for k, node := range nodes {
		idx := stickIdx[k]
		if _, ok := byStick[idx]; !ok {
			order = append(order, idx)
		}
		byStick[idx] = append(byStick[idx], node)
	}
	sticks := make([][]models.Point, 0, len(order))
	for _, idx := range order {
		sticks = append(sticks, byStick[idx])
	}
	return sticks, nil
}

// rasterizeSticks draws each stick polyline as integer voxels, linearly
// interpolating between consecutive nodes.
func rasterizeSticks(sticks [][]models.Point) []models.Point {
	var out []models.Point
	for _, stick := range sticks {
		for k, node := range stick {
			if k == 0 {
				out = append(out, node)
				continue
			}
			out = append(out, segment(stick[k-1], node)...)
		}
	}
	return out
}

// segment returns the voxels from a (exclusive) to b (inclusive).
func segment(a, b models.Point) []models.Point {
	di, dx, dd := b.I-a.I, b.X-a.X, b.D-a.D
	steps := max(max(abs(di), abs(dx)), abs(dd))
	if steps == 0 {
		return []models.Point{b}
	}
	out := make([]models.Point, 0, steps)
	for s := 1; s <= steps; s++ {
		out = append(out, models.Point{
			I: a.I + roundDiv(di*s, steps),
			X: a.X + roundDiv(dx*s, steps),
			D: a.D + roundDiv(dd*s, steps),
		})
	}
	return out
}

func roundDiv(num, den int) int {
	if num >= 0 {
		return (2*num + den) / (2 * den)
	}
	return -((-2*num + den) / (2 * den))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
