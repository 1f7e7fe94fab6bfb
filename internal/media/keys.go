package media

import (
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const keyPrefix = "posts/"

// DeriveKey builds a storage key for an uploaded file:
// posts/<unixMillis>_<sanitizedBase><ext>. The timestamp component is what
// keeps keys unique; a collision needs two uploads of an identically named
// file in the same millisecond, which we accept.
func DeriveKey(filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	return keyPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "_" + sanitizeBase(base) + ext
}

func sanitizeBase(base string) string {
	var b strings.Builder
	b.Grow(len(base))

	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	return b.String()
}

// ExtractKey recovers a storage key from a previously returned public URL.
// The store's public URLs look like .../object/public/<bucket>/<key...>, so
// the key is everything after the "public" segment minus the bucket name.
// A false return means the key is not recoverable and the caller must skip
// cleanup rather than fail.
func ExtractKey(publicURL string) (string, bool) {
	u, err := url.Parse(publicURL)
	if err != nil {
		return "", false
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	for i, segment := range segments {
		if segment != "public" {
			continue
		}

		rest := segments[i+1:]
		if len(rest) < 2 {
			return "", false
		}

		// rest[0] is the bucket by the store's URL convention
		return strings.Join(rest[1:], "/"), true
	}

	return "", false
}
