package sequencer

import "testing"

func TestSoundOrder(t *testing.T) {
	want := []string{"clap", "highHat", "kickDrum", "maracas", "rimShot", "snareDrum"}
	sounds := Sounds()
	if len(sounds) != len(want) {
		t.Fatalf("got %d sounds", len(sounds))
	}
	for i, s := range sounds {
		if s.String() != want[i] {
			t.Errorf("row %d = %s, want %s", i, s, want[i])
		}
	}
	if Sound(9).Valid() || Sound(-1).Valid() {
		t.Error("out of range sounds should be invalid")
	}
}

func TestSamples(t *testing.T) {
	samples := Samples()
	if len(samples) != NumSounds {
		t.Fatalf("got %d samples", len(samples))
	}
	if got := samples["kickDrum"]; got != "/app/assets/audio/kick_drum.mp3" {
		t.Errorf("kickDrum sample = %q", got)
	}
	if Sound(7).SamplePath() != "" {
		t.Error("invalid sound should have no sample")
	}
}

func TestGetKit(t *testing.T) {
	for _, name := range KitNames() {
		kit := GetKit(name)
		if kit.Name == "" {
			t.Errorf("kit %q has no name", name)
		}
		for _, s := range Sounds() {
			if n := kit.Note(s); n == 0 || n > 127 {
				t.Errorf("kit %q note for %s = %d", name, s, n)
			}
		}
	}

	if GetKit("nope").Name != GetKit(DefaultKit).Name {
		t.Error("unknown kit should fall back to the default")
	}
	if got := GetKit("gm").Note(KickDrum); got != 36 {
		t.Errorf("GM kick = %d, want 36", got)
	}
}
