package capture

import (
	"context"
	"strings"
	"time"
)

// awaitLogin blocks until the page is authenticated. If a login wall is up,
// a human is expected to complete the login in the visible browser window;
// this wait is unbounded by design and ends only on success or on a
// cancelled context. A failed landmark wait just means the page is still
// settling, so polling continues.
func (c *Coordinator) awaitLogin(ctx context.Context) error {
	if err := c.pager.NavigateDashboard(ctx); err != nil {
		return err
	}

	state, err := c.pager.LoginState(ctx)
	if err != nil {
		return err
	}
	onLoginWall := strings.Contains(state.URL, c.profile.LoginURLFragment) || state.HasLoginForm
	if !onLoginWall {
		c.logger.Info("already logged in")
		return nil
	}

	c.logger.Info("login required: complete the login in the browser window")

	poll := time.Duration(c.cfg.LoginPollMs) * time.Millisecond
	landmarkWait := time.Duration(c.cfg.LandmarkWaitMs) * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}

		state, err := c.pager.LoginState(ctx)
		if err != nil {
			c.logger.Debug("login poll failed", "err", err)
			continue
		}
		if strings.Contains(state.URL, c.profile.LoginURLFragment) ||
			!strings.Contains(state.URL, c.profile.DashboardHost) {
			continue
		}
		if err := c.pager.WaitLandmark(ctx, landmarkWait); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		c.logger.Info("login successful")
		return nil
	}
}
