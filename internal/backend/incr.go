package backend

// transferCursor walks one content buffer in bounded chunks for an INCR
// transfer. Invariant: 0 <= offset <= len(content). The transfer is
// terminal only after next has returned the empty chunk that signals
// end-of-data to the peer.
type transferCursor struct {
	content   []byte
	chunkSize int
	offset    int
	done      bool
}

func newTransferCursor(content []byte, chunkSize int) *transferCursor {
	if chunkSize < 1 {
		chunkSize = 1
	}
	return &transferCursor{content: content, chunkSize: chunkSize}
}

// next returns the next chunk to send. Once the content is exhausted it
// returns one empty chunk (the INCR terminator) and marks the cursor done;
// calls after that return nil.
func (c *transferCursor) next() []byte {
	if c.done {
		return nil
	}
	if c.offset >= len(c.content) {
		c.done = true
		return []byte{}
	}
	end := c.offset + c.chunkSize
	if end > len(c.content) {
		end = len(c.content)
	}
	chunk := c.content[c.offset:end]
	c.offset = end
	return chunk
}
