package conv

import (
	"fmt"
	stdhtml "html"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

var (
	extensions = parser.CommonExtensions | parser.NoEmptyLineBeforeBlock
	htmlFlags  = html.CommonFlags | html.HrefTargetBlank
	tgPolicy   = bluemonday.NewPolicy()
	textPolicy = bluemonday.StrictPolicy()

	mdEscaper = strings.NewReplacer(
		`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	)
)

func init() {
	// Allowed tags https://core.telegram.org/bots/api#html-style
	tgPolicy.AllowElements("b", "strong", "i", "em", "u", "ins", "s", "strike", "del", "code", "pre", "blockquote")
	tgPolicy.AllowAttrs("href").OnElements("a")
	tgPolicy.AllowAttrs("class").OnElements("code")
	// tg:// carries user mentions
	tgPolicy.AllowURLSchemes("http", "https", "mailto", "tg")
	tgPolicy.RequireParseableURLs(true)
}

// MarkdownToTelegramHTML renders model output into the HTML subset the Bot
// API accepts.
func MarkdownToTelegramHTML(md []byte) string {
	p := parser.NewWithExtensions(extensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})
	unsafeHTML := markdown.Render(p.Parse(md), renderer)

	return string(tgPolicy.SanitizeBytes(unsafeHTML))
}

// VisibleText is what Telegram counts against its length limit for an
// HTML message: the text left once tags are parsed out and entities decoded.
func VisibleText(tgHTML string) string {
	return stdhtml.UnescapeString(textPolicy.Sanitize(tgHTML))
}

// UserMention builds a Markdown link that Telegram renders as a mention.
func UserMention(name string, userID int64) string {
	return fmt.Sprintf("[%s](tg://user?id=%d)", mdEscaper.Replace(name), userID)
}
