package service

import (
	"errors"
	"testing"
	"time"
)

func TestResolveVideoID(t *testing.T) {
	now := time.UnixMilli(1741608000123)
	pos := 2

	cases := []struct {
		name         string
		desc         VideoDescriptor
		want         string
		wantReliable bool
	}{
		{
			name:         "explicit id wins",
			desc:         VideoDescriptor{ExplicitID: "course-intro", SourceURL: "https://cdn.example.com/media/intro.mp4"},
			want:         "course-intro",
			wantReliable: true,
		},
		{
			name:         "derived from url",
			desc:         VideoDescriptor{SourceURL: "https://cdn.example.com/media/intro.mp4"},
			want:         "intro_4091",
			wantReliable: true,
		},
		{
			name:         "query string is ignored",
			desc:         VideoDescriptor{SourceURL: "https://cdn.example.com/media/intro.mp4?token=abc"},
			want:         "intro_4091",
			wantReliable: true,
		},
		{
			name:         "long file name is truncated",
			desc:         VideoDescriptor{SourceURL: "https://example.com/videos/lecture-introduction.mp4"},
			want:         "lecture-in_3268",
			wantReliable: true,
		},
		{
			name:         "hash suffix keeps leading zeros",
			desc:         VideoDescriptor{SourceURL: "https://example.com/a.mp4"},
			want:         "a_0293",
			wantReliable: true,
		},
		{
			name:         "percent escapes are hashed as sent",
			desc:         VideoDescriptor{SourceURL: "https://x.test/media/my%20clip.mp4"},
			want:         "my%20clip_8816",
			wantReliable: true,
		},
		{
			name:         "position placeholder",
			desc:         VideoDescriptor{Position: &pos},
			want:         "video_2_000123",
			wantReliable: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, reliable, err := ResolveVideoID(tc.desc, now)
			if err != nil {
				t.Fatalf("ResolveVideoID: %v", err)
			}
			if got != tc.want {
				t.Fatalf("id: want=%q got=%q", tc.want, got)
			}
			if reliable != tc.wantReliable {
				t.Fatalf("reliable: want=%v got=%v", tc.wantReliable, reliable)
			}
		})
	}
}

func TestResolveVideoIDIsDeterministic(t *testing.T) {
	desc := VideoDescriptor{SourceURL: "https://cdn.example.com/media/intro.mp4"}
	first, _, _ := ResolveVideoID(desc, time.Now())
	second, _, _ := ResolveVideoID(desc, time.Now().Add(time.Hour))
	if first != second {
		t.Fatalf("url derived ids differ: %q %q", first, second)
	}
}

func TestResolveVideoIDRequiresSomething(t *testing.T) {
	_, _, err := ResolveVideoID(VideoDescriptor{}, time.Now())
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("error: want ErrValidation got %v", err)
	}
}

func TestPathHashWraps(t *testing.T) {
	if got := pathHash("/"); got != 47 {
		t.Fatalf("pathHash(/): want=47 got=%d", got)
	}
	if got := pathHash("/media/intro.mp4"); got != -1815854091 {
		t.Fatalf("pathHash: want=-1815854091 got=%d", got)
	}
	if got := pathHash("/videos/lecture-introduction.mp4"); got != 925533268 {
		t.Fatalf("pathHash: want=925533268 got=%d", got)
	}
	if got := pathHash("/media/my%20clip.mp4"); got != -1602688816 {
		t.Fatalf("pathHash: want=-1602688816 got=%d", got)
	}
}

func TestVideoIDFromURLEscapesNonASCII(t *testing.T) {
	for _, src := range []string{
		"https://example.com/path/to/Über-Einführung.webm",
		"https://example.com/path/to/%C3%9Cber-Einf%C3%BChrung.webm",
	} {
		id, ok := videoIDFromURL(src)
		if !ok {
			t.Fatalf("videoIDFromURL(%q): not ok", src)
		}
		if id != "%C3%9Cber-_9055" {
			t.Fatalf("videoIDFromURL(%q): want=%q got=%q", src, "%C3%9Cber-_9055", id)
		}
	}
}

func TestTruncateUTF16(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"lecture-introduction", 10, "lecture-in"},
		{"Über-Einführung", 10, "Über-Einfü"},
		{"abcdefgh😀x", 10, "abcdefgh😀"},
		{"abcdefghi😀", 10, "abcdefghi\uFFFD"},
	}
	for _, tc := range cases {
		if got := truncateUTF16(tc.in, tc.n); got != tc.want {
			t.Fatalf("truncateUTF16(%q, %d): want=%q got=%q", tc.in, tc.n, tc.want, got)
		}
	}
}
