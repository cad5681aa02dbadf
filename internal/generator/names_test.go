package generator

import "testing"

func TestMakeVar(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Power", "POWER"},
		{"Vol_up", "VOL_UP"},
		{"Vol+", "VOL_"},
		{"Ch -", "CH__"},
		{"3D mode", "KEY_3D_MODE"},
		{"  Mute  ", "MUTE"},
		{"", "KEY"},
		{"Médium", "M_DIUM"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := MakeVar(tt.label); got != tt.want {
				t.Errorf("MakeVar(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestNamerUnique(t *testing.T) {
	n := newNamer()
	got := []string{
		n.unique("POWER"),
		n.unique("POWER"),
		n.unique("POWER_2"),
		n.unique("POWER"),
		n.unique("MUTE"),
	}
	want := []string{"POWER", "POWER_2", "POWER_2_2", "POWER_3", "MUTE"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("unique #%d = %q, want %q", i, got[i], want[i])
		}
	}
}
