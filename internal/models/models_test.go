package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestProfile(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		tests := []struct {
			name    string
			id      string
			pname   string
			wantErr bool
		}{
			{name: "valid", id: "abc", pname: "Kids"},
			{name: "missing id", pname: "Kids", wantErr: true},
			{name: "blank name", id: "abc", pname: "   ", wantErr: true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				p := NewProfile(tt.pname, nil, "#ff0000")
				p.SetID(tt.id)
				if err := p.Validate(); (err != nil) != tt.wantErr {
					t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				}
			})
		}
	})

	t.Run("Keywords Are Copied", func(t *testing.T) {
		p := NewProfile("Kids", []string{"frozen"}, "")
		k := p.Keywords()
		k[0] = "changed"
		if p.Keywords()[0] != "frozen" {
			t.Error("mutating the returned slice should not change the profile")
		}
	})

	t.Run("MarshalJSON", func(t *testing.T) {
		p := NewProfile("Kids", nil, "#00ff00")
		p.SetID("id-1")

		data, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("failed to marshal: %v", err)
		}
		if !strings.Contains(string(data), `"keywords":[]`) {
			t.Errorf("expected empty keywords array, got %s", data)
		}
		if !strings.Contains(string(data), `"id":"id-1"`) {
			t.Errorf("expected id in output, got %s", data)
		}
	})
}

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeRange
		wantErr bool
	}{
		{in: "", want: ShortTerm},
		{in: "medium_term", want: MediumTerm},
		{in: "long_term", want: LongTerm},
		{in: "forever", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeRange(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimeRange(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseTimeRange(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDurations(t *testing.T) {
	track := Track{DurationMS: 185000}
	if track.Duration() != 3*time.Minute+5*time.Second {
		t.Errorf("unexpected duration %v", track.Duration())
	}

	cp := CurrentlyPlaying{ProgressMS: 1500}
	if cp.Progress() != 1500*time.Millisecond {
		t.Errorf("unexpected progress %v", cp.Progress())
	}
}

func TestChannel(t *testing.T) {
	tests := []struct {
		name    string
		channel func() *Channel
		wantErr bool
	}{
		{
			name: "valid",
			channel: func() *Channel {
				c := NewChannel("Lofi Girl", ChannelYouTube, "https://youtube.com/@lofigirl")
				c.SetID("c1")
				return c
			},
		},
		{
			name: "unknown kind",
			channel: func() *Channel {
				c := NewChannel("Radio", ChannelKind("radio"), "https://example.com")
				c.SetID("c1")
				return c
			},
			wantErr: true,
		},
		{
			name: "missing url",
			channel: func() *Channel {
				c := NewChannel("Lofi Girl", ChannelSpotify, "")
				c.SetID("c1")
				return c
			},
			wantErr: true,
		},
		{
			name:    "missing id",
			channel: func() *Channel { return NewChannel("Lofi Girl", ChannelSpotify, "https://open.spotify.com") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.channel().Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
