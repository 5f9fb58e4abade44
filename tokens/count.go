package tokens

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// encodings caches *tiktoken.Tiktoken per model name; nil marks an unknown model.
var encodings sync.Map

// CountTokens returns the number of tokens text encodes to for model. A
// provider prefix such as "openai/" is ignored. Unknown models count as 0.
func CountTokens(model, text string) int {
	enc := encodingFor(StripProvider(model))
	if enc == nil {
		return 0
	}
	return len(enc.EncodeOrdinary(text))
}

// StripProvider drops everything up to and including the first "/".
func StripProvider(model string) string {
	if _, after, found := strings.Cut(model, "/"); found {
		return after
	}
	return model
}

func encodingFor(model string) *tiktoken.Tiktoken {
	if cached, ok := encodings.Load(model); ok {
		return cached.(*tiktoken.Tiktoken)
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc = nil
	}
	actual, _ := encodings.LoadOrStore(model, enc)
	return actual.(*tiktoken.Tiktoken)
}
