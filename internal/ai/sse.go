package ai

import (
	"bufio"
	"bytes"
	"io"
)

// doneSentinel terminates OpenAI-style event streams.
const doneSentinel = "[DONE]"

// sseReader splits a text/event-stream body into event payloads.
type sseReader struct {
	r *bufio.Reader
}

func newSSEReader(r io.Reader) *sseReader {
	return &sseReader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the data of the next event. Multiple data lines are joined with "\n".
// Comments and non-data fields are skipped. io.EOF marks the end of the stream.
func (s *sseReader) Next() ([]byte, error) {
	var data [][]byte
	for {
		line, err := s.r.ReadBytes('\n')
		line = bytes.TrimRight(line, "\r\n")

		if len(line) == 0 {
			if len(data) > 0 {
				return bytes.Join(data, []byte("\n")), nil
			}
			if err != nil {
				return nil, err
			}
			continue
		}

		if v, ok := dataField(line); ok {
			data = append(data, v)
		}
		if err != nil {
			if len(data) > 0 {
				return bytes.Join(data, []byte("\n")), nil
			}
			return nil, err
		}
	}
}

func dataField(line []byte) ([]byte, bool) {
	if line[0] == ':' || !bytes.HasPrefix(line, []byte("data:")) {
		return nil, false
	}
	v := line[len("data:"):]
	if len(v) > 0 && v[0] == ' ' {
		v = v[1:]
	}
	return append([]byte(nil), v...), true
}
