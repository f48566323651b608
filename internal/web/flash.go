package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
)

const flashCookieName = "chatshelf_flash"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// flashes stores pending messages in a cookie signed with the session
// secret. A cookie with a bad signature is dropped.
type flashes struct {
	secret []byte
}

func (f flashes) sign(payload string) string {
	mac := hmac.New(sha256.New, f.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (f flashes) encode(msgs []Flash) (string, error) {
	data, err := json.Marshal(msgs)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(data)
	return payload + "." + f.sign(payload), nil
}

func (f flashes) decode(value string) []Flash {
	payload, sig, ok := strings.Cut(value, ".")
	if !ok || !hmac.Equal([]byte(sig), []byte(f.sign(payload))) {
		return nil
	}

	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil
	}

	var msgs []Flash
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil
	}
	return msgs
}

// add queues msg for the next request, keeping any messages already queued.
func (f flashes) add(w http.ResponseWriter, r *http.Request, category, message string) {
	var msgs []Flash
	if c, err := r.Cookie(flashCookieName); err == nil {
		msgs = f.decode(c.Value)
	}
	msgs = append(msgs, Flash{Category: category, Message: message})

	value, err := f.encode(msgs)
	if err != nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// pop returns the queued messages and clears the cookie.
func (f flashes) pop(w http.ResponseWriter, r *http.Request) []Flash {
	c, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return f.decode(c.Value)
}
