package ui

import "testing"

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "")

	t.Setenv("SIMFLEET_DARK_MODE", "1")
	dark := DetectTheme()
	if !dark.IsDark {
		t.Fatalf("expected dark theme when SIMFLEET_DARK_MODE=1")
	}

	t.Setenv("SIMFLEET_DARK_MODE", "")
	light := DetectTheme()
	if light.IsDark {
		t.Fatalf("expected light theme when SIMFLEET_DARK_MODE is unset")
	}
}

func TestDetectThemeFromColorFgBg(t *testing.T) {
	t.Setenv("SIMFLEET_DARK_MODE", "")
	t.Setenv("COLORFGBG", "15;0")
	if !DetectTheme().IsDark {
		t.Fatal("expected dark theme for black background")
	}

	t.Setenv("COLORFGBG", "0;15")
	if DetectTheme().IsDark {
		t.Fatal("expected light theme for white background")
	}
}
