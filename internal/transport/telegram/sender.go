package telegram

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/sandevgo/kurt/pkg/conv"
	"github.com/sandevgo/kurt/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const maxTelegramMsgLen = 4000 // Safety margin below 4096

type sender struct {
	bot *tele.Bot
}

func newSender(bot *tele.Bot) *sender {
	return &sender{bot: bot}
}

// sendMarkdown converts Markdown to Telegram HTML and sends it in chunks if needed.
// A chunk Telegram refuses to parse is resent as plain text.
func (s *sender) sendMarkdown(ctx context.Context, to tele.Recipient, md string, silent bool) error {
	logger := log.FromCtx(ctx)
	html := strings.TrimSpace(conv.MarkdownToTelegramHTML(md))
	if html == "" {
		return nil
	}

	chunks := splitHTML(html, maxTelegramMsgLen)
	for i, chunk := range chunks {
		opts := []interface{}{tele.ModeHTML, tele.NoPreview}
		if silent && i == 0 {
			opts = append(opts, tele.Silent)
		}

		_, err := s.bot.Send(to, chunk, opts...)
		if err == nil {
			continue
		}

		logger.Warn().Err(err).Int("chunk", i).Msg("telegram rejected html, sending plain text")
		if _, err := s.bot.Send(to, conv.HTMLToPlain(chunk), tele.NoPreview); err != nil {
			logger.Error().Err(err).Int("chunk", i).Int("len", len(chunk)).Msg("failed to send telegram chunk")
			return err
		}
	}
	return nil
}

// splitHTML splits text into chunks respecting Telegram's limit.
// It tries to split at newlines to preserve formatting.
func splitHTML(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			chunks = append(chunks, text)
			break
		}

		cut := maxLen
		// Try to find a good break point (newline) in the second half of the chunk
		if idx := strings.LastIndex(text[:maxLen], "\n"); idx > maxLen/3 {
			cut = idx
		} else {
			cut = safeCut(text, maxLen)
		}

		chunks = append(chunks, text[:cut])
		text = strings.TrimSpace(text[cut:])
	}
	return chunks
}

// safeCut backs n off so text[:n] ends neither inside a tag nor inside a rune.
func safeCut(text string, n int) int {
	head := text[:n]
	if open := strings.LastIndexByte(head, '<'); open > strings.LastIndexByte(head, '>') && open > 0 {
		n = open
	}
	if n = conv.RuneBoundary(text, n); n == 0 {
		// a single rune or tag longer than the limit; cut after its first rune
		_, size := utf8.DecodeRuneInString(text)
		n = size
	}
	return n
}
