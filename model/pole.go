package model

// Pole is a support structure standing on the terrain. Its conductor
// attachment height is always derived from base elevation plus pole
// height and never stored separately.
type Pole struct {
	ID        string
	X         float64 // planar scene position, east-west axis
	Z         float64 // planar scene position, north-south axis
	Elevation float64 // ground elevation at the pole base
	Height    float64 // structure height above its base
}

// AttachmentHeight is the vertical position where conductors anchor.
func (p Pole) AttachmentHeight() float64 {
	return p.Elevation + p.Height
}
