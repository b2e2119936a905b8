package service

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
)

// VideoDescriptor is whatever the tracking client knows about a video.
type VideoDescriptor struct {
	ExplicitID string
	SourceURL  string
	Position   *int
}

// ResolveVideoID picks the video id for a descriptor. reliable is false for
// the position based placeholder, which changes on every page load.
func ResolveVideoID(desc VideoDescriptor, now time.Time) (id string, reliable bool, err error) {
	if desc.ExplicitID != "" {
		return desc.ExplicitID, true, nil
	}

	if desc.SourceURL != "" {
		if id, ok := videoIDFromURL(desc.SourceURL); ok {
			return id, true, nil
		}
	}

	if desc.Position != nil {
		millis := strconv.FormatInt(now.UnixMilli(), 10)
		return fmt.Sprintf("video_%d_%s", *desc.Position, lastN(millis, 6)), false, nil
	}

	return "", false, fmt.Errorf("%w: video_id or source_url is required", ErrValidation)
}

func videoIDFromURL(src string) (string, bool) {
	u, err := url.Parse(src)
	if err != nil {
		return "", false
	}

	// Escapes stay as sent so ids match the ones already stored.
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	filename := path[strings.LastIndex(path, "/")+1:]
	name := strings.SplitN(filename, ".", 2)[0]
	name = truncateUTF16(name, 10)

	hash := int64(pathHash(path))
	if hash < 0 {
		hash = -hash
	}

	return name + "_" + lastN(strconv.FormatInt(hash, 10), 4), true
}

// pathHash is the 31-multiplier rolling hash over UTF-16 code units with
// signed 32-bit wrap-around.
func pathHash(path string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(path)) {
		h = h*31 + int32(c)
	}
	return h
}

// truncateUTF16 keeps the first n UTF-16 code units of s. A surrogate pair
// cut in half decodes to U+FFFD.
func truncateUTF16(s string, n int) string {
	units := utf16.Encode([]rune(s))
	if len(units) <= n {
		return s
	}
	return string(utf16.Decode(units[:n]))
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
