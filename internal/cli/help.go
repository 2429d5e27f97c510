package cli

import (
	"regexp"
	"strings"

	"github.com/spf13/cobra"
)

// helpRule colors the lines of cobra's help output that match re. Groups
// map to colorizers in order; a nil colorizer leaves its group unstyled.
type helpRule struct {
	re     *regexp.Regexp
	styles []func(string) string
}

var helpRules = []helpRule{
	// section headers: "Usage:", "Available Commands:", "Flags:"
	{regexp.MustCompile(`^([A-Z][A-Za-z ]+:)$`), []func(string) string{Info}},
	// footer: Use "regnemetoden [command] --help" ...
	{regexp.MustCompile(`^(Use ".*)$`), []func(string) string{Silent}},
	// flag lines: "  -f, --flag type   description"
	{regexp.MustCompile(`^( +)(-.+?)( {2,}.*)$`), []func(string) string{nil, Primary, Text}},
	// command listings: "  name   description"
	{regexp.MustCompile(`^( {2})(\S+)(\s{2,}.*)$`), []func(string) string{nil, Primary, Text}},
}

// colorizedHelpFunc renders cobra's usage text through helpRules.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		origOut := cmd.OutOrStdout()

		var buf strings.Builder
		cmd.SetOut(&buf)
		cmd.InitDefaultHelpFlag()
		if cmd.Long != "" {
			buf.WriteString(cmd.Long + "\n\n")
		} else if cmd.Short != "" {
			buf.WriteString(cmd.Short + "\n\n")
		}
		_ = cmd.Usage()
		cmd.SetOut(origOut)

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		for i, line := range lines {
			lines[i] = colorizeLine(line)
		}
		cmd.Print(strings.Join(lines, "\n") + "\n")
	}
}

func colorizeLine(line string) string {
	for _, rule := range helpRules {
		m := rule.re.FindStringSubmatch(strings.TrimRight(line, " "))
		if m == nil {
			continue
		}
		var b strings.Builder
		for i, group := range m[1:] {
			if i < len(rule.styles) && rule.styles[i] != nil {
				group = rule.styles[i](group)
			}
			b.WriteString(group)
		}
		return b.String()
	}
	return Text(line)
}
