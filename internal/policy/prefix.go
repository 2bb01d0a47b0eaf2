package policy

import (
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// MatchPrefix reports whether prefix covers command on a token boundary:
// command equals prefix, or starts with prefix followed by a space.
// An empty prefix never matches.
func MatchPrefix(prefix, command string) bool {
	if prefix == "" {
		return false
	}
	if command == prefix {
		return true
	}
	return strings.HasPrefix(command, prefix+" ")
}

// valueOptions lists global options that consume the following token, per
// program. Their values are never mistaken for the subcommand.
var valueOptions = map[string][]string{
	"git": {"-C", "-c", "--git-dir", "--work-tree", "--namespace", "--config-env", "--super-prefix"},
}

// ExtractPrefix derives the approvable prefix for command. For programs in
// subcommandPrograms the first non-flag argument is included
// ("git commit"); otherwise the prefix is the program alone.
func ExtractPrefix(command string, subcommandPrograms []string) string {
	tokens := Tokenize(command)
	if len(tokens) == 0 {
		return ""
	}
	program := tokens[0]
	if !slices.Contains(subcommandPrograms, program) {
		return program
	}
	takesValue := valueOptions[program]
	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]
		if strings.HasPrefix(tok, "-") {
			if slices.Contains(takesValue, tok) {
				i++
			}
			continue
		}
		if tok == "" {
			continue
		}
		return program + " " + tok
	}
	return program
}

// Tokenize splits command into words using POSIX shell rules. Quotes and
// escapes are honored; parameter expansions and command substitutions are
// kept as their literal source text. Only the first simple command is
// tokenized, so operators such as ";", "&&" and "|" end the word list.
// Input the parser rejects falls back to whitespace splitting.
func Tokenize(command string) []string {
	parser := syntax.NewParser(syntax.Variant(syntax.LangPOSIX))
	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return strings.Fields(command)
	}
	if len(file.Stmts) == 0 {
		return nil
	}

	call, ok := firstCall(file.Stmts[0])
	if !ok {
		return strings.Fields(command)
	}

	tokens := make([]string, 0, len(call.Assigns)+len(call.Args))
	for _, as := range call.Assigns {
		tok := as.Name.Value + "="
		if as.Value != nil {
			tok += wordText(command, as.Value)
		}
		tokens = append(tokens, tok)
	}
	for _, w := range call.Args {
		tokens = append(tokens, wordText(command, w))
	}
	return tokens
}

// firstCall descends the left side of binary commands (&&, ||, |) to the
// first simple command.
func firstCall(stmt *syntax.Stmt) (*syntax.CallExpr, bool) {
	for stmt != nil {
		switch cmd := stmt.Cmd.(type) {
		case *syntax.CallExpr:
			return cmd, true
		case *syntax.BinaryCmd:
			stmt = cmd.X
		default:
			return nil, false
		}
	}
	return nil, false
}

// wordText renders a parsed word the way a shell would after quote removal,
// without performing any expansion.
func wordText(src string, w *syntax.Word) string {
	var b strings.Builder
	for _, part := range w.Parts {
		writePart(&b, src, part, false)
	}
	return b.String()
}

func writePart(b *strings.Builder, src string, part syntax.WordPart, inDouble bool) {
	switch p := part.(type) {
	case *syntax.Lit:
		if inDouble {
			b.WriteString(unescapeDouble(p.Value))
		} else {
			b.WriteString(unescape(p.Value))
		}
	case *syntax.SglQuoted:
		b.WriteString(p.Value)
	case *syntax.DblQuoted:
		for _, inner := range p.Parts {
			writePart(b, src, inner, true)
		}
	default:
		b.WriteString(sourceText(src, part))
	}
}

func sourceText(src string, n syntax.Node) string {
	start, end := int(n.Pos().Offset()), int(n.End().Offset())
	if start < 0 || end > len(src) || start > end {
		return ""
	}
	return src[start:end]
}

// unescape removes backslash escapes from an unquoted literal.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// unescapeDouble removes the backslash escapes that are special inside
// double quotes: \$ \` \" \\.
func unescapeDouble(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && strings.IndexByte("$`\"\\", s[i+1]) >= 0 {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
