package puzzle

import "fmt"

// Redis key pattern helpers
//
// Keys are namespaced so several regent stores can share one Redis server.
//
// Record key: regent:{namespace}:puzzle:{id}
// Index key:  regent:{namespace}:puzzles

// RecordKey returns the Redis key for a stored puzzle hash.
// Pattern: regent:{namespace}:puzzle:{id}
func RecordKey(namespace string, id int) string {
	return fmt.Sprintf("regent:%s:puzzle:%d", namespace, id)
}

// IndexKey returns the Redis key of the set holding every stored identifier.
// Pattern: regent:{namespace}:puzzles
func IndexKey(namespace string) string {
	return fmt.Sprintf("regent:%s:puzzles", namespace)
}
