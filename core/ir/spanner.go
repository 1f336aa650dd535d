package ir

// CurveKind distinguishes slurs from ties.
type CurveKind string

// Curve kinds.
const (
	CurveSlur CurveKind = "slur"
	CurveTie  CurveKind = "tie"
)

// Curve is a slur or tie.
type Curve struct {
	ID        int       `json:"id"`
	Kind      CurveKind `json:"kind"`
	Placement Placement `json:"placement,omitempty"`
	LineType  string    `json:"line_type,omitempty"` // solid, dashed, dotted
}

// WedgeKind is the direction of a hairpin.
type WedgeKind string

// Wedge kinds.
const (
	WedgeCrescendo  WedgeKind = "crescendo"
	WedgeDiminuendo WedgeKind = "diminuendo"
)

// Wedge is a crescendo or diminuendo hairpin.
type Wedge struct {
	ID        int       `json:"id"`
	Kind      WedgeKind `json:"kind"`
	Placement Placement `json:"placement,omitempty"`
}

// Pedal is a sustain pedal marking.
type Pedal struct {
	ID int `json:"id"`

	// Sign and Line select the pedal style: "Ped." sign, bracket line, or
	// both.
	Sign bool `json:"sign"`
	Line bool `json:"line"`

	// Changes counts the pedal-change notches drawn along the line.
	Changes int `json:"changes,omitempty"`
}

// Tuplet is a tuplet bracket.
type Tuplet struct {
	ID          int       `json:"id"`
	ActualNotes int       `json:"actual_notes,omitempty"`
	NormalNotes int       `json:"normal_notes,omitempty"`
	Placement   Placement `json:"placement,omitempty"`
	Bracket     bool      `json:"bracket"`
	ShowNumber  string    `json:"show_number,omitempty"` // actual, both, none
}

// Beam is a beam group.
type Beam struct {
	ID int `json:"id"`
}

// OctaveShift is an 8va/8vb/15ma bracket.
type OctaveShift struct {
	ID int `json:"id"`

	// Size is 8, 15 or 22.
	Size int `json:"size"`

	// Direction is the MusicXML shift type: "down" for an 8va bracket,
	// whose notes are written lower than they sound, "up" for 8vb.
	Direction string `json:"direction"`
}

// Octaves returns how many octaves the shift spans.
func (o OctaveShift) Octaves() int {
	switch o.Size {
	case 15:
		return 2
	case 22:
		return 3
	default:
		return 1
	}
}

// Spanners lists every spanner of a score.
type Spanners struct {
	Curves       []Curve       `json:"curves,omitempty"`
	Wedges       []Wedge       `json:"wedges,omitempty"`
	Pedals       []Pedal       `json:"pedals,omitempty"`
	Tuplets      []Tuplet      `json:"tuplets,omitempty"`
	Beams        []Beam        `json:"beams,omitempty"`
	OctaveShifts []OctaveShift `json:"octave_shifts,omitempty"`
}

// Len returns the total number of spanners.
func (s *Spanners) Len() int {
	return len(s.Curves) + len(s.Wedges) + len(s.Pedals) + len(s.Tuplets) +
		len(s.Beams) + len(s.OctaveShifts)
}
