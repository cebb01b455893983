package session

import (
	"time"

	"github.com/gin-gonic/gin"
)

// CSRFFieldName is the hidden form field carrying the anti-forgery token.
const CSRFFieldName = "csrf_token"

// CSRF issues and checks anti-forgery tokens bound to the session id.
type CSRF struct {
	signer   *Signer
	sessions *Manager
}

func NewCSRF(secret string, timeLimit time.Duration, sessions *Manager) *CSRF {
	return &CSRF{signer: NewCSRFSigner(secret, timeLimit), sessions: sessions}
}

// Token returns a token for the current session, issuing the session
// cookie first if the browser does not hold one yet.
func (x *CSRF) Token(c *gin.Context) (string, error) {
	if err := x.sessions.Touch(c); err != nil {
		return "", err
	}
	return x.signer.Sign(From(c).ID)
}

// Check verifies a submitted token against the current session.
func (x *CSRF) Check(c *gin.Context, token string) error {
	sid, err := x.signer.Verify(token)
	if err != nil {
		return err
	}
	if sid != From(c).ID {
		return ErrInvalidToken
	}
	return nil
}
