package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/iamasky/tx-observer/internal/market"
	"github.com/iamasky/tx-observer/internal/mock"
)

type statusPayload struct {
	Connected bool `json:"connected"`
}

type marketDataResponse struct {
	Status statusPayload `json:"status"`
	Data   market.Series `json:"data"`
}

type historyDataResponse struct {
	Data market.Series `json:"data"`
}

type sendTelegramRequest struct {
	Token   string `json:"token"`
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
}

func (s *Server) handleMarketData(w http.ResponseWriter, r *http.Request) {
	feed, connected := s.snapshot()
	writeJSON(w, http.StatusOK, marketDataResponse{
		Status: statusPayload{Connected: connected},
		Data:   feed,
	})
}

func (s *Server) handleHistoryData(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "missing date parameter")
		return
	}
	date, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}
	night := false
	if raw := r.URL.Query().Get("night"); raw != "" {
		night, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid night, want true or false")
			return
		}
	}

	// A given date/session always replays the same synthetic day.
	gen := mock.NewGenerator(mock.SeedForSession(dateStr, night))
	series := gen.GenerateSession(date, night)

	writeJSON(w, http.StatusOK, historyDataResponse{Data: series})
}

func (s *Server) handleSendTelegram(w http.ResponseWriter, r *http.Request) {
	var req sendTelegramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Token == "" || req.ChatID == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "missing token, chatId, or message")
		return
	}

	if err := s.sender.Send(req.Token, req.ChatID, req.Message); err != nil {
		s.logger.Error().Err(err).Msg("telegram send failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "server is running"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
