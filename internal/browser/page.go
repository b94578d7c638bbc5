package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/chromedp/chromedp"

	"chatvault/internal/config"
	"chatvault/internal/domain"
	"chatvault/internal/site"
)

// Page is the one live dashboard page. It implements domain.Pager. Methods
// must not be called concurrently: there is a single DOM behind them.
type Page struct {
	ctx     context.Context
	capture config.CaptureConfig
	profile site.Profile
	logger  *slog.Logger
}

var _ domain.Pager = (*Page)(nil)

func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	// Actions must run on the page's context chain or chromedp cannot find
	// its session, so the caller's cancellation is grafted onto a child of
	// p.ctx rather than raced against an abandoned goroutine.
	runCtx, cleanup := scopedContext(p.ctx, ctx)
	defer cleanup()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// scopedContext derives a cancellable child of page that also ends when
// caller does. Cancelling the child stops in-flight actions without tearing
// down the browser session.
func scopedContext(page, caller context.Context) (context.Context, func()) {
	runCtx, cancel := context.WithCancel(page)
	stop := context.AfterFunc(caller, cancel)
	return runCtx, func() { stop(); cancel() }
}

func (p *Page) renderDelay() time.Duration {
	return time.Duration(p.capture.RenderDelayMs) * time.Millisecond
}

func (p *Page) NavigateDashboard(ctx context.Context) error {
	p.logger.Info("navigating to dashboard", "url", p.capture.DashboardURL)
	return p.run(ctx,
		chromedp.Navigate(p.capture.DashboardURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
	)
}

func (p *Page) LoginState(ctx context.Context) (domain.LoginState, error) {
	var state domain.LoginState
	err := p.run(ctx,
		chromedp.Location(&state.URL),
		chromedp.Evaluate(
			`document.querySelector('input[type="email"]') !== null && document.querySelector('input[type="password"]') !== null`,
			&state.HasLoginForm,
		),
	)
	return state, err
}

func (p *Page) WaitLandmark(ctx context.Context, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.run(waitCtx, chromedp.WaitVisible(p.profile.LandmarkSelector, chromedp.ByQuery))
}

func (p *Page) NavigateInbox(ctx context.Context) error {
	p.logger.Info("navigating to inbox")

	// Prefer clicking the menu entry; fall back to direct navigation.
	var clicked bool
	err := p.run(ctx, chromedp.Evaluate(fmt.Sprintf(`(() => {
		const link = document.querySelector(%q);
		if (!link) return false;
		link.click();
		return true;
	})()`, p.profile.LandmarkSelector), &clicked))
	if err != nil || !clicked {
		inboxURL, jerr := url.JoinPath(p.capture.DashboardURL, p.profile.InboxPath)
		if jerr != nil {
			return fmt.Errorf("build inbox url: %w", jerr)
		}
		if err := p.run(ctx, chromedp.Navigate(inboxURL)); err != nil {
			return fmt.Errorf("open inbox: %w", err)
		}
	}

	return p.run(ctx,
		chromedp.WaitReady("body"),
		chromedp.Sleep(p.renderDelay()),
	)
}

func (p *Page) ConversationCount(ctx context.Context) (int, error) {
	var count int
	err := p.run(ctx, chromedp.Evaluate(
		fmt.Sprintf(`document.querySelectorAll(%q).length`, p.profile.ListItemSelector),
		&count,
	))
	return count, err
}

// ScrollConversationList walks up from a list item to the nearest scrollable
// ancestor and scrolls it to its maximum extent, which triggers the next page
// of the virtualized list.
func (p *Page) ScrollConversationList(ctx context.Context) error {
	var scrolled bool
	err := p.run(ctx, chromedp.Evaluate(fmt.Sprintf(`(() => {
		const item = document.querySelector(%q);
		if (!item) return false;
		let el = item.parentElement;
		while (el && el.scrollHeight <= el.clientHeight) {
			el = el.parentElement;
		}
		if (!el) return false;
		el.scrollTop = el.scrollHeight;
		return true;
	})()`, p.profile.ListItemSelector), &scrolled))
	if err != nil {
		return err
	}
	if !scrolled {
		p.logger.Debug("no scrollable container found for conversation list")
	}
	return nil
}

func (p *Page) ConversationNames(ctx context.Context) ([]string, error) {
	var names []string
	err := p.run(ctx, chromedp.Evaluate(fmt.Sprintf(`(() => {
		const out = [];
		for (const item of document.querySelectorAll(%q)) {
			const nameEl = item.querySelector('div:nth-child(2) > div:first-child') ||
				Array.from(item.querySelectorAll('div')).find(d =>
					d.textContent.length > 2 && d.textContent.length < 50
				);
			const name = nameEl ? nameEl.textContent.trim() : '';
			if (name && !name.match(/^\d+[hd]$/)) {
				out.push(name);
			}
		}
		return out;
	})()`, p.profile.ListItemSelector), &names))
	return names, err
}

// SearchConversation replaces the inbox search query. The value is set
// through the native setter so the page's framework sees a real input event.
func (p *Page) SearchConversation(ctx context.Context, name string) error {
	var found bool
	err := p.run(ctx, chromedp.Evaluate(fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		const setter = Object.getOwnPropertyDescriptor(window.HTMLInputElement.prototype, 'value').set;
		setter.call(el, %q);
		el.dispatchEvent(new Event('input', { bubbles: true }));
		return true;
	})()`, p.profile.SearchInputSelector, name), &found))
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("search input %q not found", p.profile.SearchInputSelector)
	}
	return p.run(ctx, chromedp.Sleep(time.Duration(p.capture.ScrollSettleMs)*time.Millisecond))
}

func (p *Page) OpenConversation(ctx context.Context, index int) error {
	var clicked bool
	err := p.run(ctx, chromedp.Evaluate(fmt.Sprintf(`(() => {
		const items = document.querySelectorAll(%q);
		if (%d >= items.length) return false;
		items[%d].click();
		return true;
	})()`, p.profile.ListItemSelector, index, index), &clicked))
	if err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("conversation index %d not rendered", index)
	}
	return p.run(ctx, chromedp.Sleep(p.renderDelay()))
}

// ConversationSnapshot serializes the open conversation. The message
// container has no stable selector, so it is located heuristically: the first
// div that contains a date header, is not the surrounding chrome, and has
// enough children to be a thread. All parsing of the serialized nodes happens
// in the extract package.
func (p *Page) ConversationSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	js := fmt.Sprintf(`(() => {
		const result = { clientId: '', clientName: '', containerFound: false, children: [], divsChecked: 0 };

		const headerLink = document.querySelector(%q);
		if (headerLink) {
			const m = (headerLink.getAttribute('href') || '').match(/client=(\d+)/);
			if (m) result.clientId = m[1];
			const nameDiv = headerLink.querySelector('div div:first-child');
			if (nameDiv) result.clientName = nameDiv.textContent.trim();
		}

		const allDivs = document.querySelectorAll('div');
		let container = null;
		for (const div of allDivs) {
			const text = div.textContent;
			if (/\w+ \d{2}, \d{4}/.test(text) &&
				!text.includes('Inbox') &&
				!text.includes('Today') &&
				div.children.length > 5) {
				container = div;
				break;
			}
		}
		if (!container) {
			result.divsChecked = allDivs.length;
			return result;
		}

		result.containerFound = true;
		for (const child of container.children) {
			const node = {
				text: (child.textContent || '').trim(),
				classes: Array.from(child.classList),
				listItems: Array.from(child.querySelectorAll('li')).map(li => (li.textContent || '').trim()),
				images: Array.from(child.querySelectorAll('img')).map(img => ({
					url: img.src || '',
					classes: Array.from(img.classList)
				})),
				timeLabel: '',
				senderLabel: ''
			};
			const timeEl = child.querySelector(%q);
			if (timeEl) node.timeLabel = timeEl.textContent.trim();
			const senderEl = child.querySelector(%q);
			if (senderEl) node.senderLabel = senderEl.textContent.trim();
			result.children.push(node);
		}
		return result;
	})()`, p.profile.ClientLinkSelector, p.profile.TimeLabelSelector, p.profile.SenderLabelSelector)

	var snap domain.Snapshot
	if err := p.run(ctx, chromedp.Evaluate(js, &snap)); err != nil {
		return nil, fmt.Errorf("serialize conversation: %w", err)
	}
	return &snap, nil
}

func (p *Page) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := p.run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}
