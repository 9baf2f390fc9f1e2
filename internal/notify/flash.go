package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Message is one queued notification.
type Message struct {
	ID        string
	Level     Level
	Text      string
	CreatedAt time.Time
}

const defaultCapacity = 32

// Flash queues notifications until the next page render drains them.
// When full the oldest message is dropped.
type Flash struct {
	mu       sync.Mutex
	queue    []Message
	capacity int
}

// NewFlash creates a queue holding at most capacity messages.
func NewFlash(capacity int) *Flash {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Flash{capacity: capacity}
}

func (f *Flash) Success(text string) { f.push(LevelSuccess, text) }
func (f *Flash) Error(text string)   { f.push(LevelError, text) }
func (f *Flash) Info(text string)    { f.push(LevelInfo, text) }

func (f *Flash) push(level Level, text string) {
	if text == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) >= f.capacity {
		f.queue = f.queue[1:]
	}
	f.queue = append(f.queue, Message{
		ID:        uuid.NewString(),
		Level:     level,
		Text:      text,
		CreatedAt: time.Now(),
	})
}

// Drain returns every queued message in order and empties the queue.
func (f *Flash) Drain() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.queue
	f.queue = nil
	return out
}

// Len returns the number of queued messages.
func (f *Flash) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}
