package rag

import "github.com/google/uuid"

// chunkNamespace scopes chunk IDs so they never collide with other UUIDv5 users.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/Yates-Labs/cardsage/chunk"))

// ChunkID returns a deterministic UUIDv5 for a chunk of a card record.
// Re-indexing the same text yields the same ID, which makes SkipExisting work.
func ChunkID(cardName, text string) string {
	return uuid.NewSHA1(chunkNamespace, []byte(cardName+"\x00"+text)).String()
}
