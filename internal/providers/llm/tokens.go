package llm

import (
	"context"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/pkg/log"
)

const fallbackEncoding = "cl100k_base"

// tokenCounter estimates prompt size for logging. The encoding is loaded
// lazily because tiktoken may have to fetch its BPE ranks.
type tokenCounter struct {
	model string
	once  sync.Once
	tk    *tiktoken.Tiktoken
	err   error
}

func newTokenCounter(model string) *tokenCounter {
	return &tokenCounter{model: model}
}

func (t *tokenCounter) load() {
	t.tk, t.err = tiktoken.EncodingForModel(t.model)
	if t.err != nil {
		t.tk, t.err = tiktoken.GetEncoding(fallbackEncoding)
	}
}

// count returns -1 when no encoding is available.
func (t *tokenCounter) count(ctx context.Context, history []core.Message) int {
	t.once.Do(t.load)
	if t.err != nil {
		log.FromCtx(ctx).Debug().Err(t.err).Msg("token counting disabled")
		return -1
	}

	total := 0
	for _, m := range history {
		// role and framing overhead per message
		total += 4
		total += len(t.tk.Encode(m.Content, nil, nil))
	}
	return total
}
