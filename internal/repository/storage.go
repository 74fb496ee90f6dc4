package repository

import (
	"net/url"
	"strings"
)

// PublicObjectPath is the route prefix under which public objects are served.
const PublicObjectPath = "/storage/v1/object/public"

// PublicObjectURL builds the publicly fetchable URL of an object.
func PublicObjectURL(baseURL, bucket, path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(baseURL, "/") + PublicObjectPath + "/" + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}
