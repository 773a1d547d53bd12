package net

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"PaperPen/internal/export"
	"PaperPen/internal/state"
)

// Replay applies a JSON-lines log of messages to s, one message per
// line. Blank lines and lines starting with # are skipped. Messages the
// session rejects are logged and skipped like a live hub would; a line
// that is not JSON stops the replay. Artifacts from export messages are
// returned in order.
func Replay(s *state.Session, r io.Reader, def export.Options, log *slog.Logger) ([]export.Artifact, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	var arts []export.Artifact
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxMessage)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}
		var msg Message
		if err := json.Unmarshal(text, &msg); err != nil {
			return arts, fmt.Errorf("net: replay line %d: %w", line, err)
		}
		art, err := Apply(s, msg, def)
		if err != nil {
			log.Warn("[replay] message rejected", "line", line, "type", msg.Type, "err", err)
			continue
		}
		if art != nil {
			arts = append(arts, *art)
		}
	}
	if err := sc.Err(); err != nil {
		return arts, fmt.Errorf("net: replay: %w", err)
	}
	log.Info("[replay] done", "lines", line, "exports", len(arts))
	return arts, nil
}
