package output

import (
	"context"

	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
)

// BrowserSession is one launched or attached browser owned by a single run.
type BrowserSession interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Kill() error

	State(ctx context.Context, withScreenshot bool) (*entity.BrowserState, error)
	CurrentURL(ctx context.Context) (string, error)
	PageHTML(ctx context.Context) (string, error)

	Navigate(ctx context.Context, url string) error
	GoBack(ctx context.Context) error
	ClickElement(ctx context.Context, index int) error
	InputText(ctx context.Context, index int, text string) error
	SendKeys(ctx context.Context, keys string) error
	Scroll(ctx context.Context, down bool) error
	OpenTab(ctx context.Context, url string) error
	SwitchTab(ctx context.Context, pageID int) error
}

type SessionFactory interface {
	NewSession(cfg entity.BrowserLaunchConfig) (BrowserSession, error)
}
