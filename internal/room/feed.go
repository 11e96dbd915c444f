package room

// FeedCapacity bounds the reaction history kept per room.
const FeedCapacity = 20

type Reaction struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"displayName"`
	Timestamp int64  `json:"timestamp"`
}

var allowedSymbols = map[string]struct{}{
	"👍": {}, "👎": {}, "❤️": {}, "🎉": {}, "👏": {}, "😂": {},
	"😮": {}, "😢": {}, "🔥": {}, "💯": {}, "🤔": {}, "🤝": {},
	"♟️": {}, "♚": {}, "♛": {}, "⏱️": {}, "🏆": {}, "💰": {},
}

// ValidSymbol reports whether s is on the reaction allow-list.
func ValidSymbol(s string) bool {
	_, ok := allowedSymbols[s]
	return ok
}

// Feed is a fixed ring of the most recent reactions. Zero value is ready.
type Feed struct {
	buf   [FeedCapacity]Reaction
	start int
	n     int
}

func (f *Feed) Push(r Reaction) {
	if f.n < FeedCapacity {
		f.buf[(f.start+f.n)%FeedCapacity] = r
		f.n++
		return
	}
	f.buf[f.start] = r
	f.start = (f.start + 1) % FeedCapacity
}

func (f *Feed) Len() int { return f.n }

// Recent returns up to n newest entries, oldest first. n <= 0 means all.
func (f *Feed) Recent(n int) []Reaction {
	if n <= 0 || n > f.n {
		n = f.n
	}
	out := make([]Reaction, 0, n)
	for i := f.n - n; i < f.n; i++ {
		out = append(out, f.buf[(f.start+i)%FeedCapacity])
	}
	return out
}
