package world

import (
	"strconv"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ChatEntry is one line of the local chat buffer. Entries are never mutated.
type ChatEntry struct {
	ID     string
	Sender string
	Text   string
	Color  string
	System bool
}

// Sender name used for system notices.
const SystemSender = "System"

// Notice colors.
const (
	ColorInfo  = "#9ca3af"
	ColorAlert = "#ef4444"
	ColorLoot  = "#fcd34d"
)

// ChatLog keeps the most recent entries in arrival order.
type ChatLog struct {
	mu       sync.RWMutex
	capacity int
	entries  []ChatEntry
	total    uint64 // entries ever appended
	seq      uint64
	prefix   string
}

// NewChatLog creates a log holding at most capacity entries. prefix is put in
// front of locally generated entry ids so they do not collide across peers.
func NewChatLog(capacity int, prefix string) *ChatLog {
	if capacity < 1 {
		capacity = 1
	}
	return &ChatLog{
		capacity: capacity,
		entries:  make([]ChatEntry, 0, capacity),
		prefix:   prefix,
	}
}

// Append adds e, dropping the oldest entry once the log is full.
func (l *ChatLog) Append(e ChatEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == l.capacity {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:len(l.entries)-1]
	}
	l.entries = append(l.entries, e)
	l.total++
}

// Post appends a locally generated entry and returns it.
func (l *ChatLog) Post(sender, text, color string) ChatEntry {
	l.mu.Lock()
	l.seq++
	id := l.prefix + strconv.FormatUint(l.seq, 10)
	l.mu.Unlock()

	e := ChatEntry{ID: id, Sender: sender, Text: text, Color: color}
	l.Append(e)
	return e
}

// Notice appends a system line.
func (l *ChatLog) Notice(text, color string) ChatEntry {
	l.mu.Lock()
	l.seq++
	id := l.prefix + strconv.FormatUint(l.seq, 10)
	l.mu.Unlock()

	e := ChatEntry{ID: id, Sender: SystemSender, Text: text, Color: color, System: true}
	l.Append(e)
	return e
}

// Entries returns a copy of the buffered entries, oldest first.
func (l *ChatLog) Entries() []ChatEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ChatEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *ChatLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Since returns the entries appended after the log had seen total entries,
// limited to what is still buffered, and the new total.
func (l *ChatLog) Since(total uint64) ([]ChatEntry, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := l.total - total
	if total > l.total {
		n = 0
	}
	if n > uint64(len(l.entries)) {
		n = uint64(len(l.entries))
	}
	out := make([]ChatEntry, n)
	copy(out, l.entries[uint64(len(l.entries))-n:])
	return out, l.total
}

func (l *ChatLog) Reset() {
	l.mu.Lock()
	l.entries = l.entries[:0]
	l.mu.Unlock()
}

// SanitizeText NFC-normalizes s, drops control characters, trims surrounding
// space and truncates to maxRunes runes (0 means no limit).
func SanitizeText(s string, maxRunes int) string {
	s = norm.NFC.String(s)
	s = strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s))
	if maxRunes <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}
