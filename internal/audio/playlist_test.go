package audio

import (
	"strings"
	"testing"
)

func TestPlaylistCreator_M3U(t *testing.T) {
	creator := NewPlaylistCreator(FormatM3U, false)

	content := creator.CreatePlaylist("Test Album", createTestItems())

	if !strings.Contains(content, "track1.mp3") {
		t.Error("M3U should contain track filename")
	}
	if strings.Contains(content, "#EXTINF") {
		t.Error("plain M3U should not contain #EXTINF")
	}
}

func TestPlaylistCreator_M3UExtended(t *testing.T) {
	creator := NewPlaylistCreator(FormatM3U, true)

	content := creator.CreatePlaylist("Test Album", createTestItems())

	if !strings.HasPrefix(content, "#EXTM3U") {
		t.Error("Extended M3U should start with #EXTM3U")
	}
	if !strings.Contains(content, "#EXTINF:180,Test Artist - track1\n") {
		t.Errorf("Extended M3U missing artist line, got:\n%s", content)
	}
	if !strings.Contains(content, "#EXTINF:-1,track2\n") {
		t.Errorf("Extended M3U should mark unknown duration, got:\n%s", content)
	}
}

func TestPlaylistCreator_PLS(t *testing.T) {
	creator := NewPlaylistCreator(FormatPLS, false)

	content := creator.CreatePlaylist("Test Album", createTestItems())

	if !strings.HasPrefix(content, "[playlist]") {
		t.Error("PLS should start with [playlist]")
	}
	if !strings.Contains(content, "File1=track1.mp3") {
		t.Error("PLS should contain File1=")
	}
	if !strings.Contains(content, "NumberOfEntries=2") {
		t.Error("PLS should contain NumberOfEntries")
	}
}

func TestPlaylistCreator_WPL(t *testing.T) {
	creator := NewPlaylistCreator(FormatWPL, false)

	content := creator.CreatePlaylist("Test Album", createTestItems())

	if !strings.Contains(content, "<?wpl") {
		t.Error("WPL should contain XML declaration")
	}
	if !strings.Contains(content, "<title>Test Album</title>") {
		t.Error("WPL should contain the playlist title")
	}
	if !strings.Contains(content, "<media src=") {
		t.Error("WPL should contain media elements")
	}
}

func TestPlaylistCreator_ZPL(t *testing.T) {
	creator := NewPlaylistCreator(FormatZPL, false)

	content := creator.CreatePlaylist("Test Album", createTestItems())

	if !strings.Contains(content, "<?zpl") {
		t.Error("ZPL should contain XML declaration")
	}
	if !strings.Contains(content, `duration="180000"`) {
		t.Error("ZPL should contain durations in milliseconds")
	}
}

func TestPlaylistCreator_XMLEscape(t *testing.T) {
	items := []PlaylistItem{{FileName: "Track & \"Quote\".mp3", Title: "Track & \"Quote\""}}

	content := NewPlaylistCreator(FormatWPL, false).CreatePlaylist("Album <Special>", items)

	if !strings.Contains(content, "&amp;") {
		t.Error("WPL should escape & as &amp;")
	}
	if strings.Contains(content, "<Special>") {
		t.Error("WPL should escape < and >")
	}
}

func TestParsePlaylistFormat(t *testing.T) {
	tests := []struct {
		in   string
		want PlaylistFormat
		ext  string
	}{
		{"m3u", FormatM3U, "m3u"},
		{"PLS", FormatPLS, "pls"},
		{"wpl", FormatWPL, "wpl"},
		{"zpl", FormatZPL, "zpl"},
		{"", FormatM3U, "m3u"},
		{"xspf", FormatM3U, "m3u"},
	}

	for _, tt := range tests {
		got := ParsePlaylistFormat(tt.in)
		if got != tt.want {
			t.Errorf("ParsePlaylistFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if got.Extension() != tt.ext {
			t.Errorf("Extension() = %q, want %q", got.Extension(), tt.ext)
		}
	}
}

func createTestItems() []PlaylistItem {
	return []PlaylistItem{
		{FileName: "track1.mp3", Title: "track1", Artist: "Test Artist", DurationSeconds: 180},
		{FileName: "track2.mp3", Title: "track2"},
	}
}
