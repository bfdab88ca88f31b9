package analyzer

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/orcainteriores/orca-api/internal/domain"
)

// objBuilder accumulates geometry for one "o"/"g" block of an OBJ file.
type objBuilder struct {
	name     string
	vertices int
	faces    int

	minX, minY, minZ float64
	maxX, maxY, maxZ float64
}

func newObjBuilder(name string) *objBuilder {
	return &objBuilder{name: name}
}

func (b *objBuilder) addVertex(x, y, z float64) {
	if b.vertices == 0 {
		b.minX, b.maxX = x, x
		b.minY, b.maxY = y, y
		b.minZ, b.maxZ = z, z
	} else {
		b.minX = min(b.minX, x)
		b.maxX = max(b.maxX, x)
		b.minY = min(b.minY, y)
		b.maxY = max(b.maxY, y)
		b.minZ = min(b.minZ, z)
		b.maxZ = max(b.maxZ, z)
	}
	b.vertices++
}

// build computes the bounding-box area approximation. Models export in
// millimeters, so the largest box face converts mm² → m² and clamps to
// the plausible furniture range. Objects with no usable geometry get
// area zero and are filtered by the aggregator.
func (b *objBuilder) build() domain.RawObject {
	obj := domain.RawObject{
		Name:     b.name,
		Vertices: b.vertices,
		Faces:    b.faces,
	}

	if b.vertices < 3 || b.faces == 0 {
		return obj
	}

	w := b.maxX - b.minX
	h := b.maxY - b.minY
	d := b.maxZ - b.minZ

	areaMM2 := max(w*h, max(w*d, h*d))
	area := areaMM2 / 1e6

	if area < domain.MinComponentAreaM2 {
		area = domain.MinComponentAreaM2
	}
	if area > domain.MaxComponentAreaM2 {
		area = domain.MaxComponentAreaM2
	}

	obj.AreaM2 = area
	return obj
}

// parseOBJ scans a Wavefront OBJ file line by line. Only "o"/"g" (object
// start), "v" (vertex) and "f" (face) records matter; malformed lines
// are skipped rather than failing the whole file.
func parseOBJ(path string) ([]domain.RawObject, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &domain.ErrFileNotFound{Path: path}
		}
		return nil, &domain.ErrReadFailure{Path: path, Err: err}
	}
	defer f.Close()

	var (
		objects []domain.RawObject
		current *objBuilder
		anon    int
	)

	flush := func() {
		if current != nil {
			objects = append(objects, current.build())
			current = nil
		}
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "o", "g":
			flush()
			name := strings.Join(fields[1:], " ")
			if name == "" {
				anon++
				name = fmt.Sprintf("Objeto_%d", anon)
			}
			current = newObjBuilder(name)

		case "v":
			if len(fields) < 4 {
				continue
			}
			x, errX := strconv.ParseFloat(fields[1], 64)
			y, errY := strconv.ParseFloat(fields[2], 64)
			z, errZ := strconv.ParseFloat(fields[3], 64)
			if errX != nil || errY != nil || errZ != nil {
				continue
			}
			if current == nil {
				anon++
				current = newObjBuilder(fmt.Sprintf("Objeto_%d", anon))
			}
			current.addVertex(x, y, z)

		case "f":
			if len(fields) < 4 || current == nil {
				continue
			}
			current.faces++
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, &domain.ErrReadFailure{Path: path, Err: err}
	}

	flush()
	return objects, nil
}
