package importer

import "strings"

// TokenizeLine splits one CSV line into fields. Quoted fields may contain
// commas and doubled quotes; whitespace outside quotes is trimmed. Quoted
// newlines are not supported because the input is split into lines first.
func TokenizeLine(line string) ([]string, error) {
	var (
		fields  []string
		current fieldBuffer
		inQuote bool
	)
	current.reset()

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuote && c == '"':
			if i+1 < len(line) && line[i+1] == '"' {
				current.b.WriteByte('"')
				i++
				continue
			}
			inQuote = false
			current.quoteEnd = current.b.Len()
		case inQuote:
			current.b.WriteByte(c)
		case c == '"':
			inQuote = true
			if current.quoteStart < 0 {
				current.quoteStart = current.b.Len()
			}
		case c == ',':
			fields = append(fields, current.value())
			current.reset()
		default:
			current.b.WriteByte(c)
		}
	}

	if inQuote {
		return nil, ErrUnterminatedQuote
	}
	return append(fields, current.value()), nil
}

type fieldBuffer struct {
	b          strings.Builder
	quoteStart int
	quoteEnd   int
}

func (f *fieldBuffer) reset() {
	f.b.Reset()
	f.quoteStart = -1
	f.quoteEnd = -1
}

// value trims whitespace that lies outside the quoted span.
func (f *fieldBuffer) value() string {
	s := f.b.String()
	lo, hi := 0, len(s)
	for lo < hi && (f.quoteStart < 0 || lo < f.quoteStart) && isSpace(s[lo]) {
		lo++
	}
	for hi > lo && (f.quoteEnd < 0 || hi > f.quoteEnd) && isSpace(s[hi-1]) {
		hi--
	}
	return s[lo:hi]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f'
}

// splitLines splits file content into lines, drops blank ones and strips a
// leading UTF-8 byte order mark.
func splitLines(content []byte) []string {
	text := strings.TrimPrefix(string(content), "\ufeff")
	raw := strings.Split(text, "\n")

	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
