// Package flash carries one-shot notices across a redirect in a cookie.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	CookieName = "flash"
	ctxKey     = "flash_state"
	maxAge     = 5 * time.Minute
)

const (
	Success = "success"
	Info    = "info"
	Warning = "warning"
	Danger  = "danger"
)

type Message struct {
	Category string `json:"c"`
	Text     string `json:"m"`
}

type state struct {
	msgs []Message
}

func load(c echo.Context) *state {
	if st, ok := c.Get(ctxKey).(*state); ok {
		return st
	}
	st := &state{}
	if ck, err := c.Cookie(CookieName); err == nil {
		st.msgs = decode(ck.Value)
	}
	c.Set(ctxKey, st)
	return st
}

// Add queues a notice for the next rendered page.
func Add(c echo.Context, category, text string) {
	st := load(c)
	st.msgs = append(st.msgs, Message{Category: category, Text: text})
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    encode(st.msgs),
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns all queued notices and clears them.
func Pop(c echo.Context) []Message {
	st := load(c)
	msgs := st.msgs
	if len(msgs) == 0 {
		return nil
	}
	st.msgs = nil
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return msgs
}

func encode(msgs []Message) string {
	data, _ := json.Marshal(msgs)
	return base64.RawURLEncoding.EncodeToString(data)
}

func decode(v string) []Message {
	data, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return nil
	}
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil
	}
	return msgs
}
