package run

// TruncatedNotice is the fixed marker appended verbatim to any output
// clipped for exceeding a length limit. Controllers key off this literal,
// so it must never change shape.
const TruncatedNotice = "<response clipped><NOTE>Response was truncated to save context.</NOTE>"

// MaybeTruncate clips content to its first truncateAfter bytes and appends
// TruncatedNotice. Content at or under the limit is returned unchanged, so
// the function is idempotent on already-clipped input. A non-positive
// limit disables truncation.
func MaybeTruncate(content string, truncateAfter int) string {
	if truncateAfter <= 0 || len(content) <= truncateAfter {
		return content
	}
	return content[:truncateAfter] + TruncatedNotice
}
