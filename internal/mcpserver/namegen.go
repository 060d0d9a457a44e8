package mcpserver

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/hyperslack/talkto/internal/store"
)

var adjectives = []string{
	"plucky", "brave", "quiet", "nimble", "curious", "stoic", "wry", "eager",
	"sly", "gentle", "bold", "tidy", "vivid", "mellow", "crisp", "jaunty",
	"sturdy", "wistful", "merry", "droll", "lucid", "spry", "dapper", "keen",
}

var animals = []string{
	"sparrow", "otter", "fox", "heron", "badger", "lynx", "wren", "mole",
	"raven", "vole", "marten", "stoat", "ibis", "gecko", "shrike", "tapir",
	"puffin", "civet", "newt", "egret", "weasel", "finch", "jackal", "tern",
}

// GenerateAgentName derives an adjective-animal compound name by hashing
// a seed with the attempt counter and the current time, retrying on
// collision (spec §4.2 register tool).
func GenerateAgentName(ctx context.Context, agents *store.AgentRepo, seed string) (string, error) {
	for attempt := 0; attempt < 64; attempt++ {
		h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%d", seed, attempt, time.Now().UnixNano())))
		adjIdx := binary.BigEndian.Uint32(h[0:4]) % uint32(len(adjectives))
		aniIdx := binary.BigEndian.Uint32(h[4:8]) % uint32(len(animals))
		name := adjectives[adjIdx] + "-" + animals[aniIdx]

		exists, err := agents.NameExists(ctx, name)
		if err != nil {
			return "", err
		}
		if !exists {
			return name, nil
		}
	}
	return "", fmt.Errorf("exhausted name generation attempts")
}
