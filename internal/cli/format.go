package cli

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// statusStyle colors a status line by class.
func statusStyle(code int) lipgloss.Style {
	switch {
	case code >= 200 && code < 300:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("34"))
	case code >= 300 && code < 400:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	default:
		return errorStyle
	}
}

// jsonHighlighter renders indented JSON with syntax highlighting.
type jsonHighlighter struct {
	keyStyle     lipgloss.Style
	stringStyle  lipgloss.Style
	numberStyle  lipgloss.Style
	boolStyle    lipgloss.Style
	nullStyle    lipgloss.Style
	bracketStyle lipgloss.Style
}

func newJSONHighlighter() *jsonHighlighter {
	return &jsonHighlighter{
		keyStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("141")), // Purple
		stringStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("34")),  // Green
		numberStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // Orange
		boolStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("33")),  // Blue
		nullStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")), // Gray
		bracketStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("252")), // Light gray
	}
}

// Format pretty-prints content and highlights it. Invalid JSON is returned
// unchanged.
func (h *jsonHighlighter) Format(content []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, content, "", "  "); err != nil {
		return string(content)
	}

	lines := strings.Split(out.String(), "\n")
	for i, line := range lines {
		lines[i] = h.highlightLine(line)
	}
	return strings.Join(lines, "\n")
}

func (h *jsonHighlighter) highlightLine(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	indent := line[:len(line)-len(trimmed)]
	if trimmed == "" {
		return line
	}

	var result strings.Builder
	result.WriteString(indent)

	chars := []rune(trimmed)
	for i := 0; i < len(chars); {
		ch := chars[i]

		switch {
		case ch == '"':
			str, end := extractString(chars, i)
			j := end
			for j < len(chars) && chars[j] == ' ' {
				j++
			}
			if j < len(chars) && chars[j] == ':' {
				result.WriteString(h.keyStyle.Render(str))
			} else {
				result.WriteString(h.stringStyle.Render(str))
			}
			i = end

		case ch == '{' || ch == '}' || ch == '[' || ch == ']':
			result.WriteString(h.bracketStyle.Render(string(ch)))
			i++

		case ch == 't' || ch == 'f' || ch == 'n':
			word := extractWhile(chars, i, func(r rune) bool { return r >= 'a' && r <= 'z' })
			switch word {
			case "true", "false":
				result.WriteString(h.boolStyle.Render(word))
			case "null":
				result.WriteString(h.nullStyle.Render(word))
			default:
				result.WriteString(word)
			}
			i += len([]rune(word))

		case ch == '-' || (ch >= '0' && ch <= '9'):
			num := extractWhile(chars, i, func(r rune) bool {
				return r == '-' || r == '+' || r == '.' || r == 'e' || r == 'E' || (r >= '0' && r <= '9')
			})
			result.WriteString(h.numberStyle.Render(num))
			i += len([]rune(num))

		default:
			result.WriteRune(ch)
			i++
		}
	}

	return result.String()
}

func extractString(chars []rune, start int) (string, int) {
	var sb strings.Builder
	sb.WriteRune('"')
	i := start + 1
	for i < len(chars) {
		ch := chars[i]
		sb.WriteRune(ch)
		if ch == '\\' && i+1 < len(chars) {
			i++
			sb.WriteRune(chars[i])
		} else if ch == '"' {
			i++
			break
		}
		i++
	}
	return sb.String(), i
}

func extractWhile(chars []rune, start int, ok func(rune) bool) string {
	i := start
	for i < len(chars) && ok(chars[i]) {
		i++
	}
	if i == start {
		i++
	}
	return string(chars[start:i])
}
