package redis

const (
	// KeyPrefixBookmark is the prefix for bookmark row keys
	KeyPrefixBookmark = "tabmark:bookmark:"
	// KeyPrefixUser is the prefix for per-user index keys
	KeyPrefixUser = "tabmark:user:"
	// ChannelPrefixChanges is the prefix for per-user change feed channels
	ChannelPrefixChanges = "tabmark:changes:"
)

// BookmarkKey returns the Redis key holding a bookmark row.
func BookmarkKey(id string) string {
	return KeyPrefixBookmark + id
}

// UserBookmarksKey returns the sorted set of a user's bookmark IDs, scored by creation time.
func UserBookmarksKey(owner string) string {
	return KeyPrefixUser + owner + ":bookmarks"
}

// ChangesChannel returns the pub/sub channel scoped to one user.
func ChangesChannel(owner string) string {
	return ChannelPrefixChanges + owner
}
