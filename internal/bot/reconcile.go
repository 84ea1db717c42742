package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dolomitibot/dolomitibot/internal/diff"
	"github.com/dolomitibot/dolomitibot/internal/feed"
	"github.com/dolomitibot/dolomitibot/internal/logger"
	"github.com/dolomitibot/dolomitibot/internal/metrics"
	"github.com/dolomitibot/dolomitibot/internal/scraper"
	"github.com/dolomitibot/dolomitibot/internal/store"
	"github.com/dolomitibot/dolomitibot/internal/telegram"
)

// Check runs one poll cycle: fetch the feed and reconcile every entry
// against the store. A feed fetch failure aborts the cycle; a single
// entry failure only skips that entry, it will be picked up again on the
// next cycle.
func (b *Bot) Check(ctx context.Context) error {
	logger.Info("checking feed")
	start := time.Now()

	entries, err := b.feed.Fetch(ctx)
	if err != nil {
		metrics.Global.SetError(err.Error())
		return err
	}

	count, err := b.store.Count()
	if err != nil {
		metrics.Global.SetError(err.Error())
		return err
	}

	if count == 0 {
		if err := b.bootstrap(entries); err != nil {
			metrics.Global.SetError(err.Error())
			return err
		}
		metrics.Global.RecordCycle(time.Since(start))
		return nil
	}

	for _, entry := range entries {
		if err := b.processEntry(ctx, entry); err != nil {
			logger.Error("error processing entry", "link", entry.Link, "error", err)
		}
	}

	metrics.Global.RecordCycle(time.Since(start))
	logger.Info("done", "entries", len(entries), "duration", time.Since(start))
	return nil
}

// bootstrap populates an empty store with the current feed as a baseline,
// without publishing anything. Avoids flooding the channel on first run.
func (b *Bot) bootstrap(entries []feed.Entry) error {
	logger.Info("first run, populating database", "entries", len(entries))

	for _, entry := range entries {
		_, err := b.store.Insert(&store.Article{
			Title:     entry.Title,
			Link:      entry.Link,
			Published: entry.Published.Unix(),
		})
		if err != nil {
			return err
		}
	}

	logger.Info("done")
	return nil
}

func (b *Bot) processEntry(ctx context.Context, entry feed.Entry) error {
	existing, err := b.store.FindByLink(entry.Link)
	if err != nil {
		return err
	}
	if existing != nil {
		// Seen before, nothing to do
		return nil
	}

	category := b.category(entry.Link)
	if b.excluded(category) {
		metrics.Global.IncrementSkipped()
		return nil
	}

	details, err := b.scraper.FetchDetails(ctx, entry.Link)
	if err != nil {
		return err
	}

	description := details.Description
	if description == "" {
		description = entry.Description
	}

	imagePath := b.images.Download(ctx, details.ImageURL)
	if details.ImageURL != "" && imagePath == "" {
		metrics.Global.IncrementImageFailures()
	}

	msg := telegram.Message{
		Title:       strings.TrimSpace(entry.Title),
		Link:        entry.Link,
		Tags:        append(deriveTags(category), details.Tags...),
		Description: description,
		ImagePath:   imagePath,
	}

	// The link is unknown but the post id may match a record whose link
	// or title changed upstream: that is an edit, not a new article.
	if details.PostID != "" {
		prev, err := b.store.FindByPostID(details.PostID)
		if err != nil {
			return err
		}
		if prev != nil {
			return b.editArticle(ctx, prev, entry, msg)
		}
	}

	return b.sendArticle(ctx, entry, details, msg)
}

// editArticle updates the published message in place and records the
// title change in the audit channel. If the edit call fails on transport
// the store is left untouched so the same entry is retried next cycle.
func (b *Bot) editArticle(ctx context.Context, prev *store.Article, entry feed.Entry, msg telegram.Message) error {
	logger.Info("updating article", "link", entry.Link, "old_link", prev.Link)

	if prev.MessageID == 0 {
		logger.Error("article has no telegram message id, skipping edit", "link", prev.Link)
	} else {
		if err := b.tg.EditCaption(ctx, prev.MessageID, msg); err != nil {
			// Retried next cycle: the new link is still absent from the store
			return fmt.Errorf("editing message: %w", err)
		}
	}

	b.sendAudit(ctx, prev, entry)

	prev.Title = msg.Title
	prev.Link = msg.Link
	if err := b.store.Update(prev); err != nil {
		return err
	}

	metrics.Global.IncrementEdited()
	return nil
}

// sendArticle publishes a new channel message and records the article.
// On send failure nothing is stored, so the entry stays NEW for the next
// cycle.
func (b *Bot) sendArticle(ctx context.Context, entry feed.Entry, details *scraper.Details, msg telegram.Message) error {
	logger.Info("sending article", "link", entry.Link)

	messageID, err := b.tg.SendPhoto(ctx, msg)
	if err != nil {
		metrics.Global.IncrementSendFailures()
		return fmt.Errorf("sending message: %w", err)
	}

	_, err = b.store.Insert(&store.Article{
		PostID:    details.PostID,
		Title:     msg.Title,
		Link:      msg.Link,
		Published: entry.Published.Unix(),
		MessageID: messageID,
	})
	if err != nil {
		return err
	}

	metrics.Global.IncrementSent()
	return nil
}

// sendAudit posts the title diff to the logs channel. Best-effort: any
// failure here is logged and never blocks the edit flow.
func (b *Bot) sendAudit(ctx context.Context, prev *store.Article, entry feed.Entry) {
	oldMarked, newMarked := diff.Render(
		telegram.Escape(prev.Title),
		telegram.Escape(strings.TrimSpace(entry.Title)),
	)

	var text strings.Builder
	text.WriteString(oldMarked + "\n\n")
	text.WriteString(newMarked + "\n\n")
	text.WriteString("<code>" + telegram.Escape(prev.Link) + "</code>\n\n")
	text.WriteString("<code>" + telegram.Escape(entry.Link) + "</code>\n\n")
	text.WriteString(fmt.Sprintf("Message ID: <code>%d</code>\n", prev.MessageID))
	text.WriteString("Published: " + humanize.Time(time.Unix(prev.Published, 0)))

	if b.explainer != nil {
		explanation, err := b.explainer.ExplainTitleChange(ctx, prev.Title, strings.TrimSpace(entry.Title))
		if err != nil {
			logger.Warn("title change explanation failed", "error", err)
		} else {
			text.WriteString("\n\n<i>" + telegram.Escape(explanation) + "</i>")
		}
	}

	if err := b.tg.SendLog(ctx, text.String()); err != nil {
		logger.Error("error sending log", "error", err)
	}
}
