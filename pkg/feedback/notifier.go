package feedback

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"
)

// Notifier tells the maintainers that new feedback arrived.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

type shoutrrrNotifier struct {
	sender *router.ServiceRouter
}

// NewShoutrrrNotifier builds a notifier for one or more shoutrrr service URLs
// (slack://, discord://, smtp://, generic+https://, ...).
func NewShoutrrrNotifier(timeout time.Duration, urls ...string) (Notifier, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one notification url is required")
	}
	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))
	return &shoutrrrNotifier{sender: sender}, nil
}

func (n *shoutrrrNotifier) Notify(_ context.Context, title, message string) error {
	params := types.Params{}
	if title != "" {
		params.SetTitle(title)
	}
	for _, err := range n.sender.Send(message, &params) {
		if err != nil {
			return err
		}
	}
	return nil
}
