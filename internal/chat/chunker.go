package chat

import "strings"

// WordChunker re-chunks an arbitrary token stream at word boundaries so
// clients receive whole words instead of provider-sized fragments. Each
// emitted chunk is a word plus its trailing whitespace character.
type WordChunker struct {
	emit func(string)
	buf  string
}

func NewWordChunker(emit func(string)) *WordChunker {
	return &WordChunker{emit: emit}
}

// Write buffers a fragment and emits every completed word.
func (c *WordChunker) Write(fragment string) {
	c.buf += fragment
	for {
		i := strings.IndexAny(c.buf, " \t\n")
		if i < 0 {
			return
		}
		c.emit(c.buf[:i+1])
		c.buf = c.buf[i+1:]
	}
}

// Flush emits any trailing partial word. Call when the stream ends.
func (c *WordChunker) Flush() {
	if c.buf != "" {
		c.emit(c.buf)
		c.buf = ""
	}
}
