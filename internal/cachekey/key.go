// Package cachekey derives the deterministic identifier for one
// effective transform of one image. Two requests that resolve to the
// same semantic parameter set must share one cache entry regardless of
// how the caller phrased them; that property carries the cache hit rate.
package cachekey

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pixshare/imageserve/internal/domain"
)

// Build drops empty values, sorts the remaining key=value pairs
// lexicographically by key, and joins them under the image id. With no
// distinguishing parameters the key is the image id alone.
func Build(imageID string, params map[string]string) string {
	pairs := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		pairs = append(pairs, k+"="+v)
	}
	if len(pairs) == 0 {
		return imageID
	}
	sort.Strings(pairs)
	return imageID + ":" + strings.Join(pairs, "&")
}

// ForTransform builds the key from the resolved transform, not the raw
// request: resolved crop rectangle, enforced blur and watermark. The
// full-frame rectangle is omitted so an uncropped render and an explicit
// center crop land on the same entry.
func ForTransform(imageID string, params domain.ImageURLParams, crop domain.CropResolution, enforced domain.EnforcedPolicy) string {
	kv := map[string]string{
		"w":    strconv.Itoa(params.Width),
		"h":    strconv.Itoa(params.Height),
		"fit":  string(params.Fit),
		"fmt":  string(params.Format),
		"q":    strconv.Itoa(params.Quality),
		"blur": string(enforced.BlurMode),
		"wm":   string(enforced.WatermarkKind),
	}
	if !isFullFrame(crop.Rect) {
		kv["rect"] = formatRect(crop.Rect)
	}
	return Build(imageID, kv)
}

func isFullFrame(r domain.Region) bool {
	return r.X == 0 && r.Y == 0 && r.W == 1 && r.H == 1
}

func formatRect(r domain.Region) string {
	return formatCoord(r.X) + "," + formatCoord(r.Y) + "," + formatCoord(r.W) + "," + formatCoord(r.H)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
