package core

import (
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"

	geo "github.com/paulmach/go.geo"

	"github.com/danmaps/GridScaper/model"
)

// gisColumns maps parsed CSV columns to record fields. A value of -1
// means the column was not found.
type gisColumns struct {
	lat, lng, elevation, height, id int
}

// detectGISColumns matches header names by substring. It reports
// whether the row looked like a header at all; when it does not, the
// fixed column order lat, lng, elevation, height applies and the row
// is treated as data.
func detectGISColumns(header []string) (gisColumns, bool) {
	cols := gisColumns{lat: -1, lng: -1, elevation: -1, height: -1, id: -1}
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case cols.lat < 0 && strings.Contains(name, "lat"):
			cols.lat = i
		case cols.lng < 0 && (strings.Contains(name, "lng") || strings.Contains(name, "lon")):
			cols.lng = i
		case cols.elevation < 0 && (strings.Contains(name, "elev") || strings.Contains(name, "altitude")):
			cols.elevation = i
		case cols.height < 0 && strings.Contains(name, "height"):
			cols.height = i
		case cols.id < 0 && (strings.Contains(name, "id") || strings.Contains(name, "name")):
			cols.id = i
		}
	}
	return cols, cols.lat >= 0 && cols.lng >= 0
}

// ParseGISData turns a permissive CSV export into geographic records.
// Column order is detected from the header by name substring; when no
// header is recognized the fixed order lat, lng, elevation, height is
// assumed. Malformed rows are skipped with a warning; the parse fails
// only when zero valid rows remain.
func ParseGISData(input string) ([]model.GISRecord, []string, error) {
	reader := csv.NewReader(strings.NewReader(input))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse GIS csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("parse GIS csv: %w: empty input", ErrInvalidInputData)
	}

	cols, hasHeader := detectGISColumns(rows[0])
	data := rows
	if hasHeader {
		data = rows[1:]
	} else {
		cols = gisColumns{lat: 0, lng: 1, elevation: 2, height: 3, id: -1}
	}

	var warnings []string
	records := make([]model.GISRecord, 0, len(data))
	for i, row := range data {
		rec, rowErr := parseGISRow(row, cols)
		if rowErr != nil {
			warnings = append(warnings, fmt.Sprintf("row %d skipped: %v", i+1, rowErr))
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, warnings, fmt.Errorf("parse GIS csv: %w: no valid rows", ErrInvalidInputData)
	}
	return records, warnings, nil
}

func parseGISRow(row []string, cols gisColumns) (model.GISRecord, error) {
	field := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	lat, err := strconv.ParseFloat(field(cols.lat), 64)
	if err != nil {
		return model.GISRecord{}, fmt.Errorf("bad latitude %q", field(cols.lat))
	}
	lng, err := strconv.ParseFloat(field(cols.lng), 64)
	if err != nil {
		return model.GISRecord{}, fmt.Errorf("bad longitude %q", field(cols.lng))
	}

	rec := model.GISRecord{ID: field(cols.id), Lat: lat, Lng: lng}

	// Elevation and height are optional; unparsable values stay zero.
	if v, err := strconv.ParseFloat(field(cols.elevation), 64); err == nil {
		rec.Elevation = v
	}
	if v, err := strconv.ParseFloat(field(cols.height), 64); err == nil {
		rec.Height = v
	}
	return rec, nil
}

// ConvertOptions tunes geographic-to-scene projection.
type ConvertOptions struct {
	// MaxSceneSize shrinks the footprint so its largest extent fits;
	// zero disables auto-scaling.
	MaxSceneSize float64

	// Recenter shifts converted coordinates so they are all
	// non-negative.
	Recenter bool
}

// GeoBounds is the geographic extent of an import.
type GeoBounds struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

// ConversionResult carries the projected points plus import metadata.
type ConversionResult struct {
	Points       []model.ScenePoint `json:"points"`
	Bounds       GeoBounds          `json:"bounds"`
	ScaleFactor  float64            `json:"scaleFactor"`
	Bearing      float64            `json:"bearing"`
	MinElevation float64            `json:"minElevation"`
	MaxElevation float64            `json:"maxElevation"`
	Width        float64            `json:"width"`
	Depth        float64            `json:"depth"`
}

// ConvertToSceneCoordinates projects geographic records into the local
// planar scene frame. The geographic center is the midpoint of the
// lat/lng bounds; each point is placed by great-circle distance and
// bearing from that center (haversine, Earth radius 6378137 m),
// converted to feet: x grows east, z grows south.
func ConvertToSceneCoordinates(records []model.GISRecord, opts ConvertOptions) (*ConversionResult, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("convert to scene coordinates: %w: no records", ErrInvalidInputData)
	}

	bounds := GeoBounds{
		MinLat: records[0].Lat, MaxLat: records[0].Lat,
		MinLng: records[0].Lng, MaxLng: records[0].Lng,
	}
	minElev, maxElev := records[0].Elevation, records[0].Elevation
	for _, r := range records[1:] {
		bounds.MinLat = math.Min(bounds.MinLat, r.Lat)
		bounds.MaxLat = math.Max(bounds.MaxLat, r.Lat)
		bounds.MinLng = math.Min(bounds.MinLng, r.Lng)
		bounds.MaxLng = math.Max(bounds.MaxLng, r.Lng)
		minElev = math.Min(minElev, r.Elevation)
		maxElev = math.Max(maxElev, r.Elevation)
	}

	center := geo.NewPoint(
		(bounds.MinLng+bounds.MaxLng)/2,
		(bounds.MinLat+bounds.MaxLat)/2,
	)

	points := make([]model.ScenePoint, 0, len(records))
	for _, r := range records {
		p := geo.NewPoint(r.Lng, r.Lat)

		distFeet := center.GeoDistanceFrom(p, true) * MetersToFeet
		bearingRad := center.BearingTo(p) * math.Pi / 180

		points = append(points, model.ScenePoint{
			GISRecord: r,
			X:         distFeet * math.Sin(bearingRad),
			Z:         -distFeet * math.Cos(bearingRad),
		})
	}

	minX, maxX := points[0].X, points[0].X
	minZ, maxZ := points[0].Z, points[0].Z
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minZ = math.Min(minZ, p.Z)
		maxZ = math.Max(maxZ, p.Z)
	}

	scale := 1.0
	largest := math.Max(maxX-minX, maxZ-minZ)
	if opts.MaxSceneSize > 0 && largest > opts.MaxSceneSize {
		scale = opts.MaxSceneSize / largest
	}
	if scale != 1.0 {
		for i := range points {
			points[i].X *= scale
			points[i].Z *= scale
		}
		minX, maxX = minX*scale, maxX*scale
		minZ, maxZ = minZ*scale, maxZ*scale
	}

	if opts.Recenter {
		for i := range points {
			points[i].X -= minX
			points[i].Z -= minZ
		}
		maxX -= minX
		maxZ -= minZ
		minX, minZ = 0, 0
	}

	// Overall route bearing: first record toward last.
	first := geo.NewPoint(records[0].Lng, records[0].Lat)
	last := geo.NewPoint(records[len(records)-1].Lng, records[len(records)-1].Lat)
	bearing := first.BearingTo(last)
	if bearing < 0 {
		bearing += 360
	}

	return &ConversionResult{
		Points:       points,
		Bounds:       bounds,
		ScaleFactor:  scale,
		Bearing:      bearing,
		MinElevation: minElev,
		MaxElevation: maxElev,
		Width:        maxX - minX,
		Depth:        maxZ - minZ,
	}, nil
}
