package transport

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// Invite is the text encoded into invite QR codes.
func Invite(code string) string {
	return "drawguess join " + code
}

type sessionInfo struct {
	Code  string `json:"code"`
	Addr  string `json:"addr"`
	Peers int    `json:"peers"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func healthHandler() httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (h *Hub) sessionHandler() httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		code := h.Code()
		if code == "" {
			http.Error(w, "no session", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, sessionInfo{Code: code, Addr: h.addr, Peers: h.PeerCount()})
	}
}

func (h *Hub) inviteHandler() httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		code := h.Code()
		if code == "" {
			http.Error(w, "no session", http.StatusNotFound)
			return
		}
		png, err := qrcode.Encode(Invite(code), qrcode.Medium, 320)
		if err != nil {
			http.Error(w, "failed to generate qr", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(png)
	}
}
