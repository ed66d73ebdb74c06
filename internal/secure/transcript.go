// Package secure drives the interactive database hardening wizard
// non-interactively through a scripted prompt/response transcript.
package secure

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Exchange pairs a prompt substring with the response sent when it appears.
type Exchange struct {
	Expect string
	Send   string
}

// Drive feeds responses to an interactive wizard read from r and written to
// w. Prompts must arrive in the given order; a later prompt showing up early
// aborts the run instead of sending a mismatched response.
func Drive(r io.Reader, w io.Writer, script []Exchange) error {
	pending := script
	window := ""
	buf := make([]byte, 4096)

	for len(pending) > 0 {
		for len(pending) > 0 {
			idx, pos := earliestMatch(window, pending)
			if idx < 0 {
				break
			}
			if idx > 0 {
				return fmt.Errorf("prompt %q arrived before expected prompt %q", pending[idx].Expect, pending[0].Expect)
			}
			if _, err := io.WriteString(w, pending[0].Send+"\n"); err != nil {
				return fmt.Errorf("send response for prompt %q: %w", pending[0].Expect, err)
			}
			window = window[pos+len(pending[0].Expect):]
			pending = pending[1:]
		}
		if len(pending) == 0 {
			break
		}

		n, err := r.Read(buf)
		if n > 0 {
			window += string(buf[:n])
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("wizard ended before prompt %q", pending[0].Expect)
			}
			return fmt.Errorf("read wizard output: %w", err)
		}
	}
	return nil
}

// earliestMatch finds the pending exchange whose prompt appears first in the
// accumulated output window.
func earliestMatch(window string, pending []Exchange) (idx, pos int) {
	idx, pos = -1, -1
	for i, ex := range pending {
		if p := strings.Index(window, ex.Expect); p >= 0 && (pos < 0 || p < pos) {
			idx, pos = i, p
		}
	}
	return idx, pos
}
