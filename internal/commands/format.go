package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/nimbus/internal/formatter"
)

func newFormatCmd(deps *Dependencies) *cobra.Command {
	var code, detect bool

	cmd := &cobra.Command{
		Use:   "format [text]",
		Short: "Apply reply formatting to text without calling the model",
		Long: `Apply the reply formatter to text from the argument or stdin.

Lines starting with code keywords are fenced, numbered and bulleted lists
are normalized, tables get a header separator and plain text is split into
paragraphs.

  --code     wrap the input in a fence tagged with the detected language
  --detect   print only the detected language

Detected languages, in detection order: ` + strings.Join(formatter.Languages(), ", ") + `

Text starting with a dash must follow -- or come from stdin:
  nimbus format -- "$(printf -- '- a\nb')"
  printf -- '- a\nb' | nimbus format`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			switch {
			case len(args) > 0:
				text = args[0]
			case stdinHasData(deps.Stdin):
				data, err := io.ReadAll(deps.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				text = strings.TrimRight(string(data), "\n")
			default:
				return cmd.Help()
			}

			switch {
			case detect:
				lang, ok := formatter.DetectLanguage(text)
				if !ok {
					lang = "unknown"
				}
				fmt.Fprintln(deps.Stdout, lang)
			case code:
				fmt.Fprintln(deps.Stdout, formatter.FormatCode(text))
			default:
				fmt.Fprintln(deps.Stdout, formatter.Format(text))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&code, "code", false, "Fence the input as code with a detected language")
	cmd.Flags().BoolVar(&detect, "detect", false, "Print the detected code language")
	cmd.MarkFlagsMutuallyExclusive("code", "detect")
	return cmd
}
