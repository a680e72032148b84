package logx

import "testing"

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"warn":  LevelWarn,
		"WARN":  LevelWarn,
		"info":  LevelInfo,
		"debug": LevelDebug,
		"trace": LevelTrace,
		"":      LevelWarn,
		"bogus": LevelWarn,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	cases := map[int]Level{
		0: LevelWarn,
		1: LevelInfo,
		2: LevelDebug,
		3: LevelTrace,
		9: LevelTrace,
	}
	for in, want := range cases {
		if got := LevelFromVerbosity(in); got != want {
			t.Errorf("LevelFromVerbosity(%d) = %v, want %v", in, got, want)
		}
	}
}

func TestSetLevelRoundTrip(t *testing.T) {
	orig := CurrentLevel()
	defer SetLevel(orig)

	SetLevel(LevelDebug)
	if CurrentLevel() != LevelDebug {
		t.Errorf("expected LevelDebug after SetLevel")
	}
}
