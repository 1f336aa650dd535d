package options

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/staffline/core/errors"
)

// confFile is a parsed options .conf file.
type confFile struct {
	Lines []confLine `@@*`
}

// confLine is a single meaningful line in a conf file.
type confLine struct {
	Section  string `  @Section`
	Property string `| @Property`
}

// confLexer tokenizes options files line by line.
// Order matters: more specific patterns come first.
var confLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `[#;][^\r\n]*`},
	// [layout]
	{Name: "Section", Pattern: `\[[^\]\r\n]+\]`},
	// width = 900, layout.width=900
	{Name: "Property", Pattern: `[a-zA-Z][a-zA-Z0-9_.]*[ \t]*=[^\r\n]*`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "Newline", Pattern: `[\r\n]+`},
})

var confParser = participle.MustBuild[confFile](
	participle.Lexer(confLexer),
	participle.Elide("Comment", "Whitespace", "Newline"),
)

// ParseConf reads key=value lines. A [section] header prefixes the keys
// after it, so "width=900" under "[layout]" sets "layout.width".
func ParseConf(data []byte) (map[string]string, error) {
	return parseConf("", data)
}

func parseConf(path string, data []byte) (map[string]string, error) {
	cf, err := confParser.ParseBytes(path, data)
	if err != nil {
		return nil, errors.NewParse("options", path, err.Error())
	}

	values := make(map[string]string)
	section := ""
	for _, line := range cf.Lines {
		if line.Section != "" {
			section = strings.TrimSpace(strings.Trim(line.Section, "[]"))
			continue
		}
		idx := strings.Index(line.Property, "=")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line.Property[:idx])
		if section != "" {
			key = section + "." + key
		}
		values[key] = strings.TrimSpace(line.Property[idx+1:])
	}
	return values, nil
}
