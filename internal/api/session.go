package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/tommy2310DK/Aspect4/internal/errors"
)

// Session is a scoped Aspect4 login. One session is acquired per batch and
// released when the batch completes; it is never shared across requests, so
// concurrent requests cannot trample each other's backend state.
type Session struct {
	// ID correlates log lines; it never leaves the process.
	ID string
	// Token is the backend session token sent with every call.
	Token string
}

// Logon opens a new backend session with the client's credentials.
func (c *Client) Logon(ctx context.Context) (*Session, error) {
	var resp struct {
		Token string `json:"token"`
	}

	// call already told a 401/403 apart from a transport failure; a flaky
	// backend during logon is not an authentication problem.
	if err := c.call(ctx, "", "logon", map[string]any{
		"user":     c.username,
		"password": c.password,
	}, &resp); err != nil {
		return nil, err
	}

	if resp.Token == "" {
		return nil, apperrors.ErrUpstreamAuth("logon returned no session token", errors.New("empty token"))
	}

	sess := &Session{
		ID:    uuid.NewString(),
		Token: resp.Token,
	}

	zap.L().Info("aspect4 session opened", zap.String("session_id", sess.ID))
	return sess, nil
}

// Logoff releases the session. Failures are logged, not returned; the
// backend expires tokens on its own anyway.
func (c *Client) Logoff(ctx context.Context, sess *Session) {
	if sess == nil {
		return
	}

	var resp map[string]any
	if err := c.call(ctx, sess.Token, "logoff", map[string]any{}, &resp); err != nil {
		zap.L().Warn("aspect4 logoff failed",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		return
	}

	zap.L().Info("aspect4 session closed", zap.String("session_id", sess.ID))
}

// String keeps the token out of log output.
func (s *Session) String() string {
	return fmt.Sprintf("session %s", s.ID)
}
