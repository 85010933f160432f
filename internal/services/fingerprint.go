package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"geometry-relay/internal/models"
)

// Fingerprint derives the quoted ETag for a snapshot from its identity fields.
// Distinct content with identical (project, timestamp, count) yields the same token,
// and two different identities may collide on the 64-bit hash. Both are accepted:
// the token is a cache validator, not an integrity check.
func Fingerprint(projectName string, timestamp time.Time, primitiveCount int) string {
	identity := fmt.Sprintf("%s|%d|%d", models.ProjectKey(projectName), timestamp.UnixNano(), primitiveCount)
	return fmt.Sprintf("\"%016x\"", xxhash.Sum64String(identity))
}

// SnapshotFingerprint is Fingerprint applied to a stored snapshot.
func SnapshotFingerprint(s *models.GeometrySnapshot) string {
	return Fingerprint(s.ProjectName, s.TimestampUtc, len(s.Primitives))
}

// MatchesIfNoneMatch reports whether an If-None-Match header value matches etag.
// Lists and weak validators are accepted; "*" matches any current representation.
func MatchesIfNoneMatch(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" || etag == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == etag {
			return true
		}
	}
	return false
}
