package redis

const (
	// KeyPrefixLink is the prefix for link record keys
	KeyPrefixLink = "linkreminder:link:"
	// KeyAllLinks is the key for the set of all link IDs
	KeyAllLinks = "linkreminder:links:all"
	// KeyLinkURLs is the hash mapping normalized URL -> link ID
	KeyLinkURLs = "linkreminder:links:url"
	// KeyCategories is the sorted set of categories (score = insertion time)
	KeyCategories = "linkreminder:categories"
	// KeyAlarms is the sorted set of timer registrations (score = fire time, unix ms)
	KeyAlarms = "linkreminder:alarms"
)

// LinkKey returns the Redis key for a link by ID
func LinkKey(id string) string {
	return KeyPrefixLink + id
}
