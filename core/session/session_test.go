package session

import (
	"testing"

	"github.com/FocuswithJustin/staffline/core/ir"
)

func voiceScope(s *Session, measure int) *VoiceScope {
	return s.Score().System(0).Measure(measure).Fragment(0).Part("P1").Stave(1).Voice("1")
}

func TestSessionsAreIndependent(t *testing.T) {
	a, b := New(), New()
	if a.ID() == b.ID() {
		t.Error("sessions share an id")
	}
	a.NextID()
	a.NextID()
	if got := b.NextID(); got != 1 {
		t.Errorf("fresh session NextID() = %d, want 1", got)
	}
}

func TestNextIDSharedAcrossScopes(t *testing.T) {
	s := New()
	v := voiceScope(s, 0)
	ids := []int{
		s.Score().NextID(),
		v.NextID(),
		v.Entry("C", 4).NextID(),
		v.Stave().Part().NextID(),
	}
	for i, id := range ids {
		if id != i+1 {
			t.Errorf("ids[%d] = %d, want %d", i, id, i+1)
		}
	}
}

func TestCurveNumberReuse(t *testing.T) {
	s := New()

	first := voiceScope(s, 0).BeginCurve(3, ir.PlacementAbove, "")
	for m := 0; m < 3; m++ {
		id, ok := voiceScope(s, m).ContinueCurve(3)
		if !ok || id != first {
			t.Errorf("measure %d ContinueCurve(3) = %d, %v; want %d", m, id, ok, first)
		}
	}
	if id, ok := voiceScope(s, 3).CloseCurve(3); !ok || id != first {
		t.Errorf("CloseCurve(3) = %d, %v; want %d", id, ok, first)
	}

	voiceScope(s, 4).BeginCurve(1, ir.PlacementAuto, "")
	third := voiceScope(s, 4).BeginCurve(3, ir.PlacementBelow, "")
	if third == first {
		t.Error("reused curve number must get a new id")
	}
	if id, _ := voiceScope(s, 5).ContinueCurve(3); id != third {
		t.Errorf("ContinueCurve(3) = %d, want %d", id, third)
	}
	if len(s.Spanners().Curves) != 3 {
		t.Errorf("recorded %d curves, want 3", len(s.Spanners().Curves))
	}
}

func TestUnmatchedContinueIsDropped(t *testing.T) {
	s := New()
	v := voiceScope(s, 0)

	if _, ok := v.ContinueCurve(2); ok {
		t.Error("ContinueCurve without begin should report no match")
	}
	if _, ok := v.CloseCurve(2); ok {
		t.Error("CloseCurve without begin should report no match")
	}
	if _, ok := v.Stave().CloseWedge(1); ok {
		t.Error("CloseWedge without begin should report no match")
	}
	if _, ok := v.Stave().Part().ClosePedal(); ok {
		t.Error("ClosePedal without begin should report no match")
	}
	if _, ok := v.Entry("D", 5).ContinueTie(); ok {
		t.Error("ContinueTie without begin should report no match")
	}
}

func TestCurvesAreScopedToVoice(t *testing.T) {
	s := New()
	m := s.Score().System(0).Measure(0).Fragment(0).Part("P1").Stave(1)
	v1, v2 := m.Voice("1"), m.Voice("2")

	id := v1.BeginCurve(1, ir.PlacementAuto, "")
	if _, ok := v2.ContinueCurve(1); ok {
		t.Error("slur leaked into another voice")
	}
	if got := v1.OpenCurves(); len(got) != 1 || got[0] != id {
		t.Errorf("OpenCurves() = %v, want [%d]", got, id)
	}
}

func TestTiesKeyedByPitch(t *testing.T) {
	s := New()
	v := voiceScope(s, 0)

	c := v.Entry("C", 4).BeginTie(ir.PlacementAuto)
	e := v.Entry("E", 4).BeginTie(ir.PlacementAuto)

	next := voiceScope(s, 1)
	if id, ok := next.Entry("E", 4).CloseTie(); !ok || id != e {
		t.Errorf("CloseTie(E4) = %d, %v; want %d", id, ok, e)
	}
	if id, ok := next.Entry("C", 4).CloseTie(); !ok || id != c {
		t.Errorf("CloseTie(C4) = %d, %v; want %d", id, ok, c)
	}
	if _, ok := next.Entry("C", 5).CloseTie(); ok {
		t.Error("tie matched a different octave")
	}
}

func TestWedgeLifecycle(t *testing.T) {
	s := New()
	st := voiceScope(s, 0).Stave()

	id := st.BeginWedge(1, ir.WedgeCrescendo, ir.PlacementBelow)
	if got, ok := st.ContinueOpenWedge(); !ok || got != id {
		t.Errorf("ContinueOpenWedge() = %d, %v", got, ok)
	}
	if _, ok := st.CloseWedge(2); ok {
		t.Error("CloseWedge with another number should not match")
	}
	if got, ok := st.CloseWedge(1); !ok || got != id {
		t.Errorf("CloseWedge(1) = %d, %v", got, ok)
	}
	if _, ok := st.ContinueOpenWedge(); ok {
		t.Error("wedge still open after close")
	}

	other := s.Score().System(0).Measure(0).Fragment(0).Part("P1").Stave(2)
	st.BeginWedge(1, ir.WedgeDiminuendo, ir.PlacementAuto)
	if _, ok := other.ContinueOpenWedge(); ok {
		t.Error("wedge leaked into another stave")
	}
}

func TestConcurrentWedgeNumbers(t *testing.T) {
	s := New()
	st := voiceScope(s, 0).Stave()

	first := st.BeginWedge(1, ir.WedgeCrescendo, ir.PlacementBelow)
	second := st.BeginWedge(2, ir.WedgeDiminuendo, ir.PlacementAbove)
	if got, ok := st.ContinueOpenWedge(); !ok || got != second {
		t.Errorf("ContinueOpenWedge() = %d, %v; want the latest %d", got, ok, second)
	}
	if got, ok := st.CloseWedge(1); !ok || got != first {
		t.Errorf("CloseWedge(1) = %d, %v; want %d", got, ok, first)
	}
	if got, ok := st.ContinueOpenWedge(); !ok || got != second {
		t.Errorf("ContinueOpenWedge() after closing 1 = %d, %v; want %d", got, ok, second)
	}
	if got, ok := st.CloseWedge(2); !ok || got != second {
		t.Errorf("CloseWedge(2) = %d, %v; want %d", got, ok, second)
	}

	again := st.BeginWedge(1, ir.WedgeCrescendo, ir.PlacementAuto)
	replaced := st.BeginWedge(1, ir.WedgeDiminuendo, ir.PlacementAuto)
	if again == replaced {
		t.Fatal("re-begun wedge reused an id")
	}
	if got, ok := st.CloseWedge(1); !ok || got != replaced {
		t.Errorf("CloseWedge(1) after re-begin = %d, %v; want the last writer %d", got, ok, replaced)
	}
	if _, ok := st.ContinueOpenWedge(); ok {
		t.Error("wedge still open after every number closed")
	}
}

func TestPedalLastOpenWins(t *testing.T) {
	s := New()
	p := voiceScope(s, 0).Stave().Part()

	p.BeginPedal(true, false)
	second := p.BeginPedal(false, true)
	if got, _ := p.ContinueOpenPedal(); got != second {
		t.Errorf("ContinueOpenPedal() = %d, want %d", got, second)
	}
	p.ChangePedal()
	p.ChangePedal()
	if got, ok := p.ClosePedal(); !ok || got != second {
		t.Errorf("ClosePedal() = %d, %v", got, ok)
	}
	pedals := s.Spanners().Pedals
	if len(pedals) != 2 || pedals[1].Changes != 2 || !pedals[1].Line {
		t.Errorf("pedals = %+v", pedals)
	}
}

func TestOctaveShift(t *testing.T) {
	s := New()
	st := voiceScope(s, 0).Stave()

	open := st.BeginOctaveShift(8, "down")
	if open.Octaves != -1 {
		t.Errorf("8va Octaves = %d, want -1", open.Octaves)
	}
	if got, ok := st.ContinueOpenOctaveShift(); !ok || got != open {
		t.Errorf("ContinueOpenOctaveShift() = %+v, %v", got, ok)
	}
	st.CloseOctaveShift()
	if _, ok := st.ContinueOpenOctaveShift(); ok {
		t.Error("octave shift still open")
	}
	if got := st.BeginOctaveShift(15, "up"); got.Octaves != 2 {
		t.Errorf("15mb Octaves = %d, want 2", got.Octaves)
	}
}

func TestBeamsAndTupletsAreMeasureScoped(t *testing.T) {
	s := New()
	v := voiceScope(s, 0)

	beam := v.BeginBeam()
	if got, ok := v.ContinueBeam(); !ok || got != beam {
		t.Errorf("ContinueBeam() = %d, %v", got, ok)
	}
	outer := v.BeginTuplet(1, ir.Tuplet{ActualNotes: 3, NormalNotes: 2})
	inner := v.BeginTuplet(2, ir.Tuplet{ActualNotes: 5, NormalNotes: 4})
	if got := v.ContinueOpenTuplets(); len(got) != 2 || got[0] != outer || got[1] != inner {
		t.Errorf("ContinueOpenTuplets() = %v", got)
	}
	if got, ok := v.CloseTuplet(2); !ok || got != inner {
		t.Errorf("CloseTuplet(2) = %d, %v", got, ok)
	}

	next := voiceScope(s, 1)
	if _, ok := next.ContinueBeam(); ok {
		t.Error("beam crossed a barline")
	}
	if got := next.ContinueOpenTuplets(); len(got) != 0 {
		t.Errorf("tuplets crossed a barline: %v", got)
	}
}

func TestAccidentalMemoryResetsPerMeasure(t *testing.T) {
	s := New()
	v := voiceScope(s, 0)

	v.Entry("F", 4).SetActiveAccidental(1)
	if alter, ok := v.Entry("F", 4).ActiveAccidental(); !ok || alter != 1 {
		t.Errorf("ActiveAccidental() = %d, %v", alter, ok)
	}
	if _, ok := v.Entry("F", 5).ActiveAccidental(); ok {
		t.Error("accidental leaked into another octave")
	}
	if _, ok := voiceScope(s, 1).Entry("F", 4).ActiveAccidental(); ok {
		t.Error("accidental survived the barline")
	}
}

func TestMultiRestCountDecrementsToZero(t *testing.T) {
	tests := []struct {
		name  string
		stave int
	}{
		{"stave-specific", 1},
		{"whole part", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const n = 4
			s := New()
			s.SetMultiRestCount("P1", tt.stave, n)

			for m := 0; m < n; m++ {
				count, start := s.MultiRestCount("P1", 1)
				if count != n-m {
					t.Errorf("measure %d count = %d, want %d", m, count, n-m)
				}
				if start != (m == 0) {
					t.Errorf("measure %d start = %v", m, start)
				}
				s.DecrementMultiRestCounts("P1")
			}
			if count, _ := s.MultiRestCount("P1", 1); count != 0 {
				t.Errorf("count after %d measures = %d, want 0", n, count)
			}
		})
	}
}

func TestMultiRestCountIsPerPart(t *testing.T) {
	s := New()
	s.SetMultiRestCount("P1", 0, 2)
	s.SetMultiRestCount("P2", 0, 2)

	s.DecrementMultiRestCounts("P1")
	if count, _ := s.MultiRestCount("P2", 1); count != 2 {
		t.Errorf("P2 count = %d, want 2", count)
	}
	if count, _ := s.MultiRestCount("P1", 1); count != 1 {
		t.Errorf("P1 count = %d, want 1", count)
	}
}
