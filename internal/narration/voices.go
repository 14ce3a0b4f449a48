package narration

import (
	"bufio"
	"bytes"
	"context"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"narrasync/internal/services"
)

// Voice describes one synthesis voice.
type Voice struct {
	Name   string
	Gender string
	Locale string
}

// LocaleName returns the English display name of the voice's locale, falling
// back to the raw tag when it does not parse.
func (v Voice) LocaleName() string {
	tag, err := language.Parse(v.Locale)
	if err != nil {
		return v.Locale
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return v.Locale
}

// ListVoices enumerates the voices edge-tts can speak with, sorted by name.
func (e *EdgeTTS) ListVoices(ctx context.Context) ([]Voice, error) {
	out, err := e.run(ctx, e.binary, "--list-voices")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, services.Wrap(services.ErrExternalTool, "narration", "list voices", e.binary, err)
	}
	return ParseVoiceList(out), nil
}

// ParseVoiceList accepts both the tabular listing of current edge-tts releases
// and the older block format keyed by "Name:" and "ShortName:" lines.
func ParseVoiceList(output []byte) []Voice {
	var voices []Voice
	var current *Voice
	seen := map[string]bool{}
	add := func(v Voice) {
		if v.Name == "" || seen[v.Name] {
			return
		}
		seen[v.Name] = true
		if v.Locale == "" {
			v.Locale = localeFromName(v.Name)
		}
		voices = append(voices, v)
	}

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "---") {
			continue
		}
		if key, value, ok := strings.Cut(line, ":"); ok && !strings.Contains(key, " ") {
			value = strings.TrimSpace(value)
			if key == "Name" {
				if current != nil {
					add(*current)
				}
				current = &Voice{}
				continue
			}
			if current == nil {
				continue
			}
			switch key {
			case "ShortName":
				current.Name = value
			case "Gender":
				current.Gender = value
			case "Locale":
				current.Locale = value
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] == "Name" || !strings.Contains(fields[0], "-") {
			continue
		}
		add(Voice{Name: fields[0], Gender: fields[1]})
	}
	if current != nil {
		add(*current)
	}
	sort.Slice(voices, func(i, j int) bool { return voices[i].Name < voices[j].Name })
	return voices
}

// FilterVoices keeps voices whose locale starts with prefix, case-insensitively.
func FilterVoices(voices []Voice, prefix string) []Voice {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return voices
	}
	var out []Voice
	for _, v := range voices {
		if strings.HasPrefix(strings.ToLower(v.Locale), prefix) {
			out = append(out, v)
		}
	}
	return out
}

// localeFromName strips the trailing voice identifier from names such as
// "en-AU-NatashaNeural" or "iu-Latn-CA-SiqiniqNeural".
func localeFromName(name string) string {
	idx := strings.LastIndex(name, "-")
	if idx <= 0 {
		return name
	}
	return name[:idx]
}
