// Package rod drives Chrome for one agent run through go-rod: a local
// process from launcher or an existing browser over its DevTools URL.
package rod

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"
	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

const (
	defaultTimeout = 30 * time.Second
	settleTimeout  = 2 * time.Second
)

var errSessionClosed = errors.New("browser session closed")

var (
	_ output.BrowserSession = (*Session)(nil)
	_ output.SessionFactory = (*Factory)(nil)
)

type Options struct {
	NoSandbox bool
	Timeout   time.Duration
}

func DefaultOptions() Options {
	return Options{Timeout: defaultTimeout}
}

type Factory struct {
	opts   Options
	logger output.LoggerPort
}

func NewFactory(opts Options, logger output.LoggerPort) *Factory {
	return &Factory{opts: opts, logger: logger}
}

func (f *Factory) NewSession(cfg entity.BrowserLaunchConfig) (output.BrowserSession, error) {
	return NewSession(cfg, f.opts, f.logger), nil
}

// Session owns one browser. Methods other than Start, Stop and Kill fail
// with entity.ErrSessionNotStarted until Start succeeds.
type Session struct {
	cfg    entity.BrowserLaunchConfig
	opts   Options
	logger output.LoggerPort

	mu       sync.Mutex
	cancel   context.CancelFunc
	starting bool
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	tabIDs   map[proto.TargetTargetID]int
	nextTab  int
	stopped  bool
}

func NewSession(cfg entity.BrowserLaunchConfig, opts Options, logger output.LoggerPort) *Session {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Session{
		cfg:    cfg,
		opts:   opts,
		logger: logger.WithField("component", "browser"),
		tabIDs: make(map[proto.TargetTargetID]int),
	}
}

// Start launches or attaches to the browser. The mutex is not held while
// talking to the browser, so Kill can abort a start in progress.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.browser != nil:
		s.mu.Unlock()
		return nil
	case s.stopped:
		s.mu.Unlock()
		return errSessionClosed
	case s.starting:
		s.mu.Unlock()
		return errors.New("browser session is already starting")
	}
	startCtx, cancelStart := context.WithCancel(ctx)
	defer cancelStart()
	s.starting = true
	s.cancel = cancelStart
	var l *launcher.Launcher
	if !s.cfg.IsRemote() {
		var warnings []error
		l, warnings = newLauncher(s.cfg, s.opts.NoSandbox)
		for _, w := range warnings {
			s.logger.Warn("Ignoring chrome argument", "error", w)
		}
		s.launcher = l
	}
	s.mu.Unlock()

	o, err := s.open(startCtx, l)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.starting = false
	if err == nil && s.stopped {
		err = errSessionClosed
	}
	if err != nil {
		s.cancel = nil
		if o.close != nil {
			o.close()
		}
		if o.launched {
			go s.discard(l)
		}
		if ctxErr := startCtx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", err, ctxErr)
		}
		return err
	}

	s.browser = o.browser
	s.cancel = o.close
	s.page = o.page
	s.tabID(o.page.TargetID)
	s.logger.Info("Browser session started", "remote", s.cfg.IsRemote(), "headless", s.cfg.Headless)
	return nil
}

type opened struct {
	browser  *rod.Browser
	page     *rod.Page
	close    context.CancelFunc
	launched bool
}

// open connects to the browser and prepares the first page. Every blocking
// call is bound to ctx; on success the browser outlives ctx until o.close.
func (s *Session) open(ctx context.Context, l *launcher.Launcher) (o opened, err error) {
	controlURL, err := s.controlURL(ctx, l)
	if err != nil {
		return o, err
	}
	o.launched = l != nil

	bctx, closeBrowser := context.WithCancel(context.Background())
	o.close = closeBrowser
	detach := context.AfterFunc(ctx, closeBrowser)
	browser := rod.New().ControlURL(controlURL).Context(bctx)
	err = browser.Connect()
	if !detach() {
		return o, fmt.Errorf("failed to connect to browser: %w", ctx.Err())
	}
	if err != nil {
		return o, fmt.Errorf("failed to connect to browser: %w", err)
	}

	setup := browser.Context(ctx)
	if s.cfg.DisableSecurity {
		if err := setup.IgnoreCertErrors(true); err != nil {
			s.logger.Warn("Failed to ignore certificate errors", "error", err)
		}
	}
	if err := s.interceptRequests(browser); err != nil {
		return o, err
	}

	page, err := firstPage(setup)
	if err != nil {
		return o, err
	}
	o.browser = browser
	o.page = page.Context(bctx)
	return o, nil
}

func (s *Session) controlURL(ctx context.Context, l *launcher.Launcher) (string, error) {
	if l == nil {
		u, err := resolveControlURL(ctx, s.cfg.RemoteDebuggingURL)
		if err != nil {
			return "", fmt.Errorf("failed to resolve debugging url %q: %w", s.cfg.RemoteDebuggingURL, err)
		}
		return u, nil
	}

	type launched struct {
		url string
		err error
	}
	done := make(chan launched, 1)
	go func() {
		u, err := l.Context(ctx).Launch()
		done <- launched{u, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("failed to launch browser: %w", r.err)
		}
		return r.url, nil
	case <-ctx.Done():
		go func() {
			<-done
			if l.PID() != 0 {
				s.discard(l)
			}
		}()
		return "", ctx.Err()
	}
}

// resolveControlURL turns a port, host:port or http URL into the DevTools
// websocket URL by asking the browser's /json/version endpoint.
func resolveControlURL(ctx context.Context, raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		u = "9222"
	}
	if _, err := strconv.Atoi(u); err == nil {
		u = "127.0.0.1:" + u
	}
	if !strings.Contains(u, "://") {
		u = "http://" + u
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return "", err
	}
	switch parsed.Scheme {
	case "ws", "wss":
		return parsed.String(), nil
	case "https":
	default:
		parsed.Scheme = "http"
	}

	version := *parsed
	version.Path = "/json/version"
	version.RawQuery = ""
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, version.String(), nil)
	if err != nil {
		return "", err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s from %s", res.Status, version.String())
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	wsURL := gson.New(data).Get("webSocketDebuggerUrl").Str()
	if wsURL == "" {
		return "", fmt.Errorf("no webSocketDebuggerUrl in %s", version.String())
	}
	ws, err := url.Parse(wsURL)
	if err != nil {
		return "", err
	}
	ws.Host = parsed.Host
	return ws.String(), nil
}

// interceptRequests pauses every request in one Fetch event loop. Disallowed
// domains are failed, proxy challenges get the configured credentials and
// everything else continues.
func (s *Session) interceptRequests(browser *rod.Browser) error {
	proxy := s.cfg.Proxy
	withAuth := proxy != nil && proxy.Username != ""
	allowed := s.cfg.AllowedDomains
	if !withAuth && len(allowed) == 0 {
		return nil
	}

	wait := browser.EachEvent(
		func(e *proto.FetchRequestPaused) {
			if len(allowed) > 0 && !DomainAllowed(allowed, e.Request.URL) {
				s.logger.Debug("Blocked request outside allowed domains", "url", e.Request.URL)
				_ = proto.FetchFailRequest{
					RequestID:   e.RequestID,
					ErrorReason: proto.NetworkErrorReasonBlockedByClient,
				}.Call(browser)
				return
			}
			_ = proto.FetchContinueRequest{RequestID: e.RequestID}.Call(browser)
		},
		func(e *proto.FetchAuthRequired) {
			res := &proto.FetchAuthChallengeResponse{Response: proto.FetchAuthChallengeResponseResponseDefault}
			if withAuth && e.AuthChallenge != nil && e.AuthChallenge.Source == proto.FetchAuthChallengeSourceProxy {
				res = &proto.FetchAuthChallengeResponse{
					Response: proto.FetchAuthChallengeResponseResponseProvideCredentials,
					Username: proxy.Username,
					Password: proxy.Password,
				}
			}
			_ = proto.FetchContinueWithAuth{RequestID: e.RequestID, AuthChallengeResponse: res}.Call(browser)
		},
	)

	err := proto.FetchEnable{
		Patterns:           []*proto.FetchRequestPattern{{URLPattern: "*"}},
		HandleAuthRequests: withAuth,
	}.Call(browser)
	if err != nil {
		return fmt.Errorf("failed to enable request interception: %w", err)
	}
	go wait()
	return nil
}

func firstPage(browser *rod.Browser) (*rod.Page, error) {
	pages, err := browser.Pages()
	if err == nil && len(pages) > 0 {
		return pages.First(), nil
	}
	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	return page, nil
}

// Stop closes a launched browser and removes its temporary profile. An
// attached browser is only disconnected.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	browser, l, cancel := s.browser, s.launcher, s.cancel
	s.mu.Unlock()

	var err error
	if l != nil && browser != nil {
		err = browser.Context(ctx).Close()
	}
	if cancel != nil {
		cancel()
	}
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	if l != nil && browser != nil && s.cfg.PersistentUserDataDir == "" {
		if err := cleanup(ctx, l); err != nil {
			return err
		}
	}
	s.logger.Info("Browser session stopped")
	return nil
}

// Kill terminates a launched browser process immediately and aborts a Start
// in progress. Safe to call concurrently with any other method.
func (s *Session) Kill() error {
	s.mu.Lock()
	l, cancel, started := s.launcher, s.cancel, s.browser != nil
	s.stopped = true
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if l == nil || !started {
		return nil
	}
	s.discard(l)
	s.logger.Warn("Browser process killed")
	return nil
}

// discard kills a launched process and removes its temporary profile. It
// blocks until the process exits.
func (s *Session) discard(l *launcher.Launcher) {
	l.Kill()
	if s.cfg.PersistentUserDataDir == "" {
		l.Cleanup()
	}
}

func (s *Session) active(ctx context.Context) (*rod.Page, context.CancelFunc, error) {
	s.mu.Lock()
	page := s.page
	stopped := s.stopped
	s.mu.Unlock()
	if page == nil || stopped {
		return nil, nil, entity.ErrSessionNotStarted
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	return page.Context(ctx), cancel, nil
}

func (s *Session) State(ctx context.Context, withScreenshot bool) (*entity.BrowserState, error) {
	page, cancel, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to read page info: %w", err)
	}
	state := &entity.BrowserState{URL: info.URL, Title: info.Title}

	if res, err := page.Eval(indexElementsJS); err != nil {
		s.logger.Warn("Element indexing failed", "url", info.URL, "error", err)
	} else if state.Elements, err = decodeElements(res.Value.Str()); err != nil {
		s.logger.Warn("Element decoding failed", "error", err)
	}

	if state.Tabs, err = s.tabs(page); err != nil {
		s.logger.Warn("Listing tabs failed", "error", err)
	}

	if withScreenshot {
		raw, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
			Format:  proto.PageCaptureScreenshotFormatJpeg,
			Quality: gson.Int(80),
		})
		if err != nil {
			s.logger.Warn("Screenshot failed", "error", err)
		} else if state.Screenshot, err = encodeScreenshot(raw); err != nil {
			s.logger.Warn("Screenshot encoding failed", "error", err)
		} else {
			state.ScreenshotFormat = "jpeg"
		}
	}
	return state, nil
}

func (s *Session) tabs(page *rod.Page) ([]entity.TabInfo, error) {
	s.mu.Lock()
	browser := s.browser
	s.mu.Unlock()

	pages, err := browser.Context(page.GetContext()).Pages()
	if err != nil {
		return nil, err
	}
	tabs := make([]entity.TabInfo, 0, len(pages))
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		s.mu.Lock()
		id := s.tabID(p.TargetID)
		s.mu.Unlock()
		tabs = append(tabs, entity.TabInfo{PageID: id, URL: info.URL, Title: info.Title})
	}
	sort.Slice(tabs, func(i, j int) bool { return tabs[i].PageID < tabs[j].PageID })
	return tabs, nil
}

// tabID assigns stable small ids to targets in discovery order. Callers hold s.mu.
func (s *Session) tabID(target proto.TargetTargetID) int {
	if id, ok := s.tabIDs[target]; ok {
		return id
	}
	id := s.nextTab
	s.tabIDs[target] = id
	s.nextTab++
	return id
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	page, cancel, err := s.active(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()
	info, err := page.Info()
	if err != nil {
		return "", fmt.Errorf("failed to read page info: %w", err)
	}
	return info.URL, nil
}

func (s *Session) PageHTML(ctx context.Context) (string, error) {
	page, cancel, err := s.active(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()
	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

func (s *Session) checkDomain(url string) error {
	if !DomainAllowed(s.cfg.AllowedDomains, url) {
		return fmt.Errorf("%w: %s is outside the allowed domains", entity.ErrInvalidURL, url)
	}
	return nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.checkDomain(url); err != nil {
		return err
	}
	page, cancel, err := s.active(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("waiting for page load: %w", err)
	}
	_ = page.WaitIdle(settleTimeout)
	return nil
}

func (s *Session) GoBack(ctx context.Context) error {
	page, cancel, err := s.active(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	if err := page.NavigateBack(); err != nil {
		return fmt.Errorf("navigate back failed: %w", err)
	}
	_ = page.WaitLoad()
	return nil
}

func (s *Session) element(page *rod.Page, index int) (*rod.Element, error) {
	els, err := page.Elements(elementSelector(index))
	if err != nil {
		return nil, fmt.Errorf("query element %d: %w", index, err)
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("index %d: %w", index, entity.ErrElementNotFound)
	}
	return els.First(), nil
}

func (s *Session) ClickElement(ctx context.Context, index int) error {
	page, cancel, err := s.active(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	el, err := s.element(page, index)
	if err != nil {
		return err
	}
	if err := el.ScrollIntoView(); err != nil {
		s.logger.Debug("Scroll into view failed", "index", index, "error", err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	_ = page.WaitIdle(settleTimeout)
	return nil
}

func (s *Session) InputText(ctx context.Context, index int, text string) error {
	page, cancel, err := s.active(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	el, err := s.element(page, index)
	if err != nil {
		return err
	}
	if err := el.ScrollIntoView(); err != nil {
		s.logger.Debug("Scroll into view failed", "index", index, "error", err)
	}
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("input failed: %w", err)
	}
	return nil
}

func (s *Session) SendKeys(ctx context.Context, keys string) error {
	stroke, err := parseKeys(keys)
	if err != nil {
		return err
	}
	page, cancel, err := s.active(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	if stroke.Text != "" {
		if err := page.InsertText(stroke.Text); err != nil {
			return fmt.Errorf("typing text failed: %w", err)
		}
		return nil
	}
	if err := page.KeyActions().Press(stroke.Modifiers...).Type(stroke.Key).Do(); err != nil {
		return fmt.Errorf("sending keys %q failed: %w", keys, err)
	}
	_ = page.WaitIdle(settleTimeout)
	return nil
}

func (s *Session) Scroll(ctx context.Context, down bool) error {
	page, cancel, err := s.active(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	if _, err := page.Eval(scrollJS, down); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	return nil
}

func (s *Session) OpenTab(ctx context.Context, url string) error {
	if err := s.checkDomain(url); err != nil {
		return err
	}
	_, cancel, err := s.active(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	s.mu.Lock()
	browser := s.browser
	s.mu.Unlock()

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return fmt.Errorf("failed to open tab: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("waiting for page load: %w", err)
	}
	return s.activate(page)
}

func (s *Session) SwitchTab(ctx context.Context, pageID int) error {
	_, cancel, err := s.active(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	s.mu.Lock()
	browser := s.browser
	var target proto.TargetTargetID
	found := false
	for t, id := range s.tabIDs {
		if id == pageID {
			target, found = t, true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return fmt.Errorf("no tab with id %d", pageID)
	}

	pages, err := browser.Context(ctx).Pages()
	if err != nil {
		return fmt.Errorf("failed to list tabs: %w", err)
	}
	for _, p := range pages {
		if p.TargetID == target {
			return s.activate(p)
		}
	}
	return fmt.Errorf("tab %d is closed", pageID)
}

func (s *Session) activate(page *rod.Page) error {
	if _, err := page.Activate(); err != nil {
		return fmt.Errorf("failed to activate tab: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabID(page.TargetID)
	s.page = page.Context(context.Background())
	return nil
}

// cleanup waits for the launched process to exit and removes its temporary
// profile, giving up when ctx ends.
func cleanup(ctx context.Context, l *launcher.Launcher) error {
	done := make(chan struct{})
	go func() {
		l.Cleanup()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for browser exit: %w", ctx.Err())
	}
}
