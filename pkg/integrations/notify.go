package integrations

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/kerbaras/mangashelf/pkg/data"
)

// SummaryTitle heads every push summary.
const SummaryTitle = "mangashelf"

// Notifier delivers a short push message.
type Notifier interface {
	Send(ctx context.Context, title, message string) error
}

// NopNotifier drops every message. It is used when no URLs are configured.
type NopNotifier struct{}

func (NopNotifier) Send(context.Context, string, string) error { return nil }

// ShoutrrrNotifier fans a message out to every configured service URL
// (pushover://, ntfy://, ...).
type ShoutrrrNotifier struct {
	sender *router.ServiceRouter
}

// NewNotifier builds a shoutrrr notifier, or a NopNotifier for no URLs.
func NewNotifier(urls []string, timeout time.Duration) (Notifier, error) {
	if len(urls) == 0 {
		return NopNotifier{}, nil
	}
	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, fmt.Errorf("invalid notification url: %w", err)
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))
	return &ShoutrrrNotifier{sender: sender}, nil
}

func (n *ShoutrrrNotifier) Send(ctx context.Context, title, message string) error {
	_ = ctx // the router applies its own timeout

	params := stypes.Params{}
	if title != "" {
		params.SetTitle(title)
	}
	for _, err := range n.sender.Send(message, &params) {
		if err != nil {
			return fmt.Errorf("failed to send notification: %w", err)
		}
	}
	return nil
}

// BuildSummary renders the end-of-pass message: a count line, one sorted
// "series number" line per imported chapter, then the gaps if any.
func BuildSummary(imported []*data.ImportRecord, missing []data.MissingChapter) string {
	lines := make([]string, 0, len(imported))
	for _, rec := range imported {
		lines = append(lines, fmt.Sprintf("%s %s", rec.Series, rec.Chapter))
	}
	sort.Strings(lines)

	var b strings.Builder
	fmt.Fprintf(&b, "%d new chapter(s) downloaded", len(imported))
	for _, line := range lines {
		b.WriteString("\n")
		b.WriteString(line)
	}
	if len(missing) > 0 {
		b.WriteString("\n\nMissing chapters:")
		for _, m := range missing {
			b.WriteString("\n")
			b.WriteString(m.String())
		}
	}
	return b.String()
}
