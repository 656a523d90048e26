package acquire

import "testing"

func TestArchiveName(t *testing.T) {
	tests := []struct {
		name    string
		display string
		want    string
	}{
		{name: "mixed punctuation", display: "My App! 2", want: "my_app_2.tar.gz"},
		{name: "plain", display: "Firefox", want: "firefox.tar.gz"},
		{name: "hyphen dropped", display: "F-Droid Client", want: "fdroid_client.tar.gz"},
		{name: "already safe", display: "wikipedia", want: "wikipedia.tar.gz"},
		{name: "unicode letters kept", display: "Café Timer", want: "café_timer.tar.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ArchiveName(tt.display); got != tt.want {
				t.Errorf("ArchiveName(%q) = %q, want %q", tt.display, got, tt.want)
			}
		})
	}
}

func TestArchiveNameDeterministic(t *testing.T) {
	first := ArchiveName("My App! 2")
	for i := 0; i < 5; i++ {
		if got := ArchiveName("My App! 2"); got != first {
			t.Fatalf("derivation not deterministic: %q != %q", got, first)
		}
	}
}
