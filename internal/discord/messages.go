package discord

import "strings"

const (
	maxMessageLength = 2000
	fence            = "```"
)

// splitMessage cuts msg into chunks of at most limit bytes, breaking at line
// ends where it can. Fences inside msg are defused so the wrapping block
// stays intact.
func splitMessage(msg string, limit int) []string {
	msg = strings.ReplaceAll(msg, fence, "'''")
	if msg == "" {
		return []string{"(empty reply)"}
	}

	var chunks []string
	for len(msg) > limit {
		cut := strings.LastIndexByte(msg[:limit], '\n')
		if cut <= 0 {
			cut = limit
			for cut > 0 && !startsRune(msg[cut]) {
				cut--
			}
			chunks = append(chunks, msg[:cut])
			msg = msg[cut:]
			continue
		}
		chunks = append(chunks, msg[:cut])
		msg = msg[cut+1:]
	}
	if msg != "" {
		chunks = append(chunks, msg)
	}
	return chunks
}

func startsRune(b byte) bool { return b&0xC0 != 0x80 }
