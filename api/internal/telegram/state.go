package telegram

import (
	"sync"
	"time"
)

const (
	// Photos of one long receipt arrive as separate messages; wait this long
	// after the last one before stitching and extracting.
	debounce  = 1200 * time.Millisecond
	maxPixels = 18_000_000

	historyLimit = 20
)

type photoBatch struct {
	ChatID       int64
	Key          string // "grp:<mediaGroupID>" | "chat:<chatID>"
	MediaGroupID string

	mu     sync.Mutex
	images [][]byte
	timer  *time.Timer
}

var batches sync.Map // key -> *photoBatch
