package nocloning

import (
	"testing"

	"qir/internal/ir"
)

func TestViolationJoin(t *testing.T) {
	w0 := Witness{Qubit: 0, Gate: "cx"}
	w1 := Witness{Qubit: 1, Gate: "cx"}
	must0 := newViolation(Must, []Witness{w0})
	must1 := newViolation(Must, []Witness{w1})
	may0 := newViolation(May, []Witness{w0})
	none := Violation{}

	tests := []struct {
		name string
		a, b Violation
		want Violation
	}{
		{"none none", none, none, none},
		{"same must", must0, must0, must0},
		{"must none", must0, none, may0},
		{"none must", none, must0, may0},
		{"different must", must0, must1, newViolation(May, []Witness{w0, w1})},
		{"may none", may0, none, may0},
		{"may must", may0, must1, newViolation(May, []Witness{w0, w1})},
		{"may may", may0, may0, may0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Join(tt.a, tt.b); !got.Equal(tt.want) {
				t.Fatalf("Join = %+v, want %+v", got, tt.want)
			}
			if got := Join(tt.b, tt.a); !got.Equal(tt.want) {
				t.Fatalf("Join is not commutative: %+v", got)
			}
		})
	}
}

func TestViolationNormalizes(t *testing.T) {
	v := newViolation(Must, []Witness{
		{Qubit: 2, Gate: "cx"},
		{Qubit: 0, Gate: "cx"},
		{Qubit: 2, Gate: "cx"},
	})
	if len(v.Witnesses) != 2 || v.Witnesses[0].Qubit != 0 {
		t.Fatalf("witnesses not sorted and unique: %+v", v.Witnesses)
	}
	if got := newViolation(Must, nil); got.Kind != None {
		t.Fatalf("empty witness set must be None, got %s", got.Kind)
	}
}

func TestDuplicates(t *testing.T) {
	tests := []struct {
		ids  []uint64
		want []uint64
	}{
		{[]uint64{0, 1}, nil},
		{[]uint64{2, 2}, []uint64{2}},
		{[]uint64{3, 1, 3, 1, 0}, []uint64{1, 3}},
		{nil, nil},
	}
	for _, tt := range tests {
		got := duplicates(tt.ids)
		if len(got) != len(tt.want) {
			t.Fatalf("duplicates(%v) = %v, want %v", tt.ids, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("duplicates(%v) = %v, want %v", tt.ids, got, tt.want)
			}
		}
	}
}

func TestStateJoinPerWitness(t *testing.T) {
	w0 := Witness{Qubit: 0, Gate: "cx"}
	w1 := Witness{Qubit: 1, Gate: "cx"}
	a := state{reached: true, clones: map[Witness]clone{
		w0: {kind: Must, stmts: []ir.StmtID{3}},
		w1: {kind: Must, stmts: []ir.StmtID{4}},
	}}
	b := state{reached: true, clones: map[Witness]clone{
		w0: {kind: Must, stmts: []ir.StmtID{5}},
	}}
	want := map[Witness]clone{
		w0: {kind: Must, stmts: []ir.StmtID{3, 5}},
		w1: {kind: May, stmts: []ir.StmtID{4}},
	}
	lat := stateLattice{}
	for _, got := range []state{lat.Join(a, b), lat.Join(b, a)} {
		if !lat.Equal(got, state{reached: true, clones: want}) {
			t.Fatalf("Join = %+v, want %+v", got.clones, want)
		}
	}
	if got := lat.Join(state{}, b); !lat.Equal(got, b) {
		t.Fatalf("unreached state must be the identity, got %+v", got)
	}
}
